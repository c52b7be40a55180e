package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"

	"github.com/narayanprabad/InvestWise/internal/domain/models"
	domsvc "github.com/narayanprabad/InvestWise/internal/domain/service"
)

// vaderNeutral is the usual VADER cut-off below which a compound score counts as neutral.
const vaderNeutral = 0.05

// LexiconSentimentAnalyzer scores recent headlines against a finance word-valence
// lexicon. Headlines with no finance terms fall back to VADER's general-purpose
// compound score. Score is the mean valence of matched words. Confidence grows with
// the number of headlines that carry any sentiment and saturates at fullConfidenceAt.
type LexiconSentimentAnalyzer struct {
	news             domsvc.NewsSource
	count            int
	fullConfidenceAt int
	lexicon          map[string]float64
	vader            *govader.SentimentIntensityAnalyzer
}

type LexiconOption func(*LexiconSentimentAnalyzer)

// WithHeadlineCount sets how many headlines are requested per symbol.
func WithHeadlineCount(n int) LexiconOption {
	return func(a *LexiconSentimentAnalyzer) {
		if n > 0 {
			a.count = n
		}
	}
}

// WithLexicon replaces the word valences.
func WithLexicon(lex map[string]float64) LexiconOption {
	return func(a *LexiconSentimentAnalyzer) {
		if len(lex) > 0 {
			a.lexicon = lex
		}
	}
}

func NewLexiconSentimentAnalyzer(news domsvc.NewsSource, opts ...LexiconOption) *LexiconSentimentAnalyzer {
	a := &LexiconSentimentAnalyzer{
		news:             news,
		count:            20,
		fullConfidenceAt: 5,
		lexicon:          financeLexicon,
		vader:            govader.NewSentimentIntensityAnalyzer(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *LexiconSentimentAnalyzer) Analyze(ctx context.Context, symbol string) (models.SentimentScore, error) {
	headlines, err := a.news.Headlines(ctx, symbol, a.count)
	if err != nil {
		return models.SentimentScore{}, fmt.Errorf("headlines: %w", err)
	}
	if len(headlines) == 0 {
		return models.SentimentScore{}, fmt.Errorf("%w: no headlines for %s", domsvc.ErrSourceUnavailable, symbol)
	}

	var total float64
	words, matched := 0, 0
	for _, h := range headlines {
		sum, n := a.scoreText(h.Title)
		if n == 0 {
			continue
		}
		total += sum
		words += n
		matched++
	}

	res := models.SentimentScore{Symbol: symbol, Samples: len(headlines)}
	if words == 0 {
		return res, nil
	}
	res.Score = math.Max(-5, math.Min(5, total/float64(words)))
	coverage := float64(matched) / float64(len(headlines))
	res.Confidence = coverage * math.Min(1, float64(matched)/float64(a.fullConfidenceAt))
	return res, nil
}

// scoreText returns the summed valence and the number of hits in text. Finance terms
// take precedence; otherwise a non-neutral VADER compound, scaled to [-5,5], counts
// as a single hit.
func (a *LexiconSentimentAnalyzer) scoreText(text string) (float64, int) {
	if sum, n := a.scoreFinance(text); n > 0 {
		return sum, n
	}
	c := a.vader.PolarityScores(text).Compound
	if math.Abs(c) < vaderNeutral {
		return 0, 0
	}
	return c * 5, 1
}

func (a *LexiconSentimentAnalyzer) scoreFinance(text string) (float64, int) {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	var sum float64
	n := 0
	negate := false
	for _, tok := range tokens {
		if _, ok := negators[tok]; ok {
			negate = true
			continue
		}
		if v, ok := a.lexicon[tok]; ok {
			if negate {
				v = -v
			}
			sum += v
			n++
		}
		negate = false
	}
	return sum, n
}

var _ domsvc.SentimentSource = (*LexiconSentimentAnalyzer)(nil)
