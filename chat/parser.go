package chat

// OutputParser turns raw model output into the reply text returned to callers.
type OutputParser interface {
	Parse(raw string) (string, error)
}

// StrOutputParser returns model output unchanged.
type StrOutputParser struct{}

func (StrOutputParser) Parse(raw string) (string, error) {
	return raw, nil
}
