package extractors

import "codeindex/internal/engine/parser"

func Go() parser.Extractor {
	return &parser.GoExtractor{}
}

func Python() parser.Extractor {
	return &parser.PythonExtractor{}
}
