package core

// featurize.go builds the per-column descriptive profile consumed by the
// pretrained type model. Profiles are computed from cell text only, so the
// same dataset always produces the same profile regardless of its source.

import (
	"math"
	"regexp"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ProfileSamples is the number of sample values carried in a profile.
const ProfileSamples = 5

// longSentenceWords is the mean word count above which a column reads as prose.
const longSentenceWords = 10

var (
	urlRegex   = regexp.MustCompile(`(?i)\b(https?://|www\.)\S+`)
	emailRegex = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	delimiters = ",;|"
	stopwords  = map[string]struct{}{
		"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
		"for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {}, "it": {}, "its": {},
		"of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {}, "to": {}, "was": {},
		"were": {}, "will": {}, "with": {}, "i": {}, "you": {}, "we": {}, "they": {}, "she": {},
	}
)

// ColumnProfile describes one column for the type model.
// Undefined statistics are NaN until FillMissing is applied.
type ColumnProfile struct {
	Name string `json:"name"`

	TotalValues   int     `json:"total_vals"`
	MissingValues int     `json:"num_nans"`
	MissingRatio  float64 `json:"pct_nans"`
	DistinctCount int     `json:"num_of_dist_val"`
	DistinctRatio float64 `json:"pct_dist_val"`

	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min_val"`
	Max    float64 `json:"max_val"`

	HasDelimiters bool `json:"has_delimiters"`
	HasURL        bool `json:"has_url"`
	HasEmail      bool `json:"has_email"`
	HasDate       bool `json:"has_date"`

	MeanWordCount       float64 `json:"mean_word_count"`
	StdWordCount        float64 `json:"std_dev_word_count"`
	MeanStopwordCount   float64 `json:"mean_stopword_total"`
	StdStopwordCount    float64 `json:"std_dev_stopword_total"`
	MeanCharCount       float64 `json:"mean_char_count"`
	StdCharCount        float64 `json:"std_dev_char_count"`
	MeanWhitespaceCount float64 `json:"mean_whitespace_count"`
	StdWhitespaceCount  float64 `json:"std_dev_whitespace_count"`
	MeanDelimiterCount  float64 `json:"mean_delim_count"`
	StdDelimiterCount   float64 `json:"std_dev_delim_count"`

	IsList         bool `json:"is_list"`
	IsLongSentence bool `json:"is_long_sentence"`

	Samples []string `json:"samples"`
}

// Featurize profiles every column of a dataset in column order.
func Featurize(ds *Dataset) []ColumnProfile {
	profiles := make([]ColumnProfile, ds.NumColumns())
	for i := range ds.columns {
		profiles[i] = ProfileColumn(&ds.columns[i])
	}
	return profiles
}

// ProfileColumn computes the descriptive profile of a single column.
func ProfileColumn(col *Column) ColumnProfile {
	p := ColumnProfile{
		Name:        col.Name,
		TotalValues: col.Len(),
	}

	present := col.Present()
	p.MissingValues = p.TotalValues - len(present)
	p.MissingRatio = ratio(p.MissingValues, p.TotalValues)

	distinct := make(map[string]struct{}, len(present))
	for _, v := range present {
		distinct[v] = struct{}{}
	}
	p.DistinctCount = len(distinct)
	p.DistinctRatio = ratio(p.DistinctCount, len(present))

	var nums []float64
	for _, v := range present {
		if f, _, ok := ParseNumber(v); ok {
			nums = append(nums, f)
		}
	}
	p.Mean, p.StdDev, p.Min, p.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
	if len(nums) > 0 {
		p.Mean, p.StdDev = stat.MeanStdDev(nums, nil)
		p.Min, p.Max = floats.Min(nums), floats.Max(nums)
	}

	n := len(present)
	wordCounts := make([]float64, n)
	stopCounts := make([]float64, n)
	charCounts := make([]float64, n)
	spaceCounts := make([]float64, n)
	delimCounts := make([]float64, n)
	for i, v := range present {
		words := strings.Fields(v)
		wordCounts[i] = float64(len(words))
		for _, w := range words {
			if _, ok := stopwords[strings.ToLower(w)]; ok {
				stopCounts[i]++
			}
		}
		charCounts[i] = float64(len([]rune(v)))
		spaceCounts[i] = float64(strings.Count(v, " "))
		for _, d := range delimiters {
			delimCounts[i] += float64(strings.Count(v, string(d)))
		}

		p.HasDelimiters = p.HasDelimiters || strings.ContainsAny(v, delimiters)
		p.HasURL = p.HasURL || urlRegex.MatchString(v)
		p.HasEmail = p.HasEmail || emailRegex.MatchString(v)
		if !p.HasDate {
			_, p.HasDate = ParseDate(v)
		}
	}

	p.MeanWordCount, p.StdWordCount = meanStd(wordCounts)
	p.MeanStopwordCount, p.StdStopwordCount = meanStd(stopCounts)
	p.MeanCharCount, p.StdCharCount = meanStd(charCounts)
	p.MeanWhitespaceCount, p.StdWhitespaceCount = meanStd(spaceCounts)
	p.MeanDelimiterCount, p.StdDelimiterCount = meanStd(delimCounts)

	p.IsList = n > 0 && p.MeanDelimiterCount >= 1 && isListLike(present)
	p.IsLongSentence = p.MeanWordCount > longSentenceWords

	for _, v := range present {
		if len(p.Samples) == ProfileSamples {
			break
		}
		p.Samples = append(p.Samples, v)
	}

	return p
}

// Vector returns the numeric profile fields in a fixed order.
// Booleans are encoded as 0/1; the order matches VectorFields.
func (p ColumnProfile) Vector() []float64 {
	return []float64{
		float64(p.TotalValues), float64(p.MissingValues), p.MissingRatio,
		float64(p.DistinctCount), p.DistinctRatio,
		p.Mean, p.StdDev, p.Min, p.Max,
		boolFloat(p.HasDelimiters), boolFloat(p.HasURL), boolFloat(p.HasEmail), boolFloat(p.HasDate),
		p.MeanWordCount, p.StdWordCount,
		p.MeanStopwordCount, p.StdStopwordCount,
		p.MeanCharCount, p.StdCharCount,
		p.MeanWhitespaceCount, p.StdWhitespaceCount,
		p.MeanDelimiterCount, p.StdDelimiterCount,
		boolFloat(p.IsList), boolFloat(p.IsLongSentence),
	}
}

// VectorFields names the entries of ColumnProfile.Vector.
var VectorFields = []string{
	"total_vals", "num_nans", "pct_nans",
	"num_of_dist_val", "pct_dist_val",
	"mean", "std_dev", "min_val", "max_val",
	"has_delimiters", "has_url", "has_email", "has_date",
	"mean_word_count", "std_dev_word_count",
	"mean_stopword_total", "std_dev_stopword_total",
	"mean_char_count", "std_dev_char_count",
	"mean_whitespace_count", "std_dev_whitespace_count",
	"mean_delim_count", "std_dev_delim_count",
	"is_list", "is_long_sentence",
}

// FillMissing returns a copy of the profile with every NaN statistic replaced by v.
func (p ColumnProfile) FillMissing(v float64) ColumnProfile {
	for _, f := range []*float64{
		&p.MissingRatio, &p.DistinctRatio,
		&p.Mean, &p.StdDev, &p.Min, &p.Max,
		&p.MeanWordCount, &p.StdWordCount,
		&p.MeanStopwordCount, &p.StdStopwordCount,
		&p.MeanCharCount, &p.StdCharCount,
		&p.MeanWhitespaceCount, &p.StdWhitespaceCount,
		&p.MeanDelimiterCount, &p.StdDelimiterCount,
	} {
		if math.IsNaN(*f) {
			*f = v
		}
	}
	return p
}

// isListLike reports whether most values look like delimited or bracketed lists.
func isListLike(values []string) bool {
	lists := 0
	for _, v := range values {
		t := strings.TrimSpace(v)
		if (strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]")) || strings.ContainsAny(t, delimiters) {
			lists++
		}
	}
	return lists*2 > len(values)
}

func meanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.MeanStdDev(x, nil)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(n) / float64(total)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
