package xpath

type Tracer interface  {
	Do(string, Token)
}

type discardTracer struct {}

func (_ discardTracer) Do(_ string, _ Token) {}

type stdioTracer struct {}

func (t stdioTracer) Do(rule string, token Token) {}
