package session

// The editor host numbers lines from 0, the engine's definitions are
// 1-based. The off-by-one translation lives here and nowhere else.

func ToDefinitionLine(editorLine int) int {
	return editorLine + 1
}

func ToEditorLine(definitionLine int) int {
	return definitionLine - 1
}
