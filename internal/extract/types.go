package extract

// Strategy identifies which lexical form a candidate was captured from.
type Strategy string

const (
	StrategyTagText     Strategy = "tag-text"
	StrategyDoubleQuote Strategy = "quote-double"
	StrategySingleQuote Strategy = "quote-single"
	StrategyTemplate    Strategy = "template-literal"
)

// Candidate is a raw capture before classification.
type Candidate struct {
	// Text is the captured text, already cleaned for strategies that clean.
	Text string
	// Raw is the text exactly as matched between the delimiters.
	Raw string
	// File is the path of the file the candidate came from.
	File string
	// Strategy is the extraction strategy that produced the candidate.
	Strategy Strategy
	// Offset is the byte offset of the match within the file content.
	Offset int
}

// Decision records the classifier outcome for a candidate.
type Decision struct {
	Candidate
	Accepted bool
	// Rule is the name of the rejecting rule, empty when accepted or when the
	// candidate failed the post-clean length check.
	Rule string
}
