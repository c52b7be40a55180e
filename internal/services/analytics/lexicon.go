package analytics

// financeLexicon holds AFINN-style valences in [-5,5] for market headlines.
var financeLexicon = map[string]float64{
	// positive
	"beat":        2,
	"beats":       2,
	"boom":        3,
	"boost":       2,
	"boosts":      2,
	"breakout":    2,
	"bullish":     3,
	"buy":         1,
	"climb":       2,
	"climbs":      2,
	"confidence":  2,
	"gain":        2,
	"gains":       2,
	"growth":      2,
	"high":        1,
	"improve":     2,
	"improves":    2,
	"jump":        2,
	"jumps":       2,
	"outperform":  3,
	"optimism":    2,
	"optimistic":  2,
	"profit":      2,
	"profits":     2,
	"rally":       3,
	"rallies":     3,
	"rebound":     2,
	"record":      2,
	"recovery":    2,
	"rise":        2,
	"rises":       2,
	"robust":      2,
	"soar":        3,
	"soars":       3,
	"strong":      2,
	"surge":       3,
	"surges":      3,
	"upbeat":      2,
	"upgrade":     3,
	"upgraded":    3,
	"win":         3,
	"wins":        3,
	"success":     2,
	"successful":  3,
	"stable":      1,
	"positive":    2,
	"inflows":     2,
	"expansion":   2,
	"dividend":    1,
	"approval":    2,
	"approved":    2,
	// negative
	"bearish":     -3,
	"collapse":    -4,
	"collapses":   -4,
	"concern":     -2,
	"concerns":    -2,
	"crash":       -4,
	"crashes":     -4,
	"crisis":      -3,
	"cut":         -1,
	"cuts":        -1,
	"decline":     -2,
	"declines":    -2,
	"default":     -3,
	"deficit":     -2,
	"downgrade":   -3,
	"downgraded":  -3,
	"drop":        -2,
	"drops":       -2,
	"fall":        -2,
	"falls":       -2,
	"fear":        -2,
	"fears":       -2,
	"fraud":       -4,
	"inflation":   -1,
	"loss":        -3,
	"losses":      -3,
	"miss":        -2,
	"misses":      -2,
	"negative":    -2,
	"outflows":    -2,
	"panic":       -3,
	"plunge":      -3,
	"plunges":     -3,
	"recession":   -3,
	"risk":        -1,
	"risks":       -1,
	"selloff":     -3,
	"slump":       -3,
	"slumps":      -3,
	"slowdown":    -2,
	"tumble":      -3,
	"tumbles":     -3,
	"uncertainty": -2,
	"volatile":    -1,
	"weak":        -2,
	"worst":       -3,
	"layoffs":     -2,
	"bankruptcy":  -4,
	"lawsuit":     -2,
	"probe":       -2,
	"warning":     -2,
}

var negators = map[string]struct{}{
	"not":     {},
	"no":      {},
	"never":   {},
	"without": {},
	"isn't":   {},
	"don't":   {},
	"won't":   {},
}
