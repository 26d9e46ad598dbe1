package pbls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func TestContentChangeToTextEditWithRange(t *testing.T) {
	change := protocol.TextDocumentContentChangeEvent{
		Range: &protocol.Range{
			Start: protocol.Position{Line: 1, Character: 2},
			End:   protocol.Position{Line: 1, Character: 5},
		},
		Text: "abc",
	}
	edit := contentChangeToTextEdit(change)
	if assert.NotNil(t, edit.Range) {
		assert.Equal(t, 1, edit.Range.Start.Line)
		assert.Equal(t, 2, edit.Range.Start.Character)
		assert.Equal(t, 5, edit.Range.End.Character)
	}
	assert.Equal(t, "abc", edit.Text)
}

func TestContentChangeToTextEditWithoutRange(t *testing.T) {
	change := protocol.TextDocumentContentChangeEvent{Text: "whole doc"}
	edit := contentChangeToTextEdit(change)
	assert.Nil(t, edit.Range)
	assert.Equal(t, "whole doc", edit.Text)
}

func TestSymbolKindToProtocol(t *testing.T) {
	assert.Equal(t, protocol.SymbolKindEnum, symbolKindToProtocol(SymbolEnum))
	assert.Equal(t, protocol.SymbolKindClass, symbolKindToProtocol(SymbolMessage))
}

func TestRangeToProtocol(t *testing.T) {
	r := Range{Start: Position{Line: 2, Character: 3}, End: Position{Line: 2, Character: 7}}
	pr := rangeToProtocol(r)
	assert.Equal(t, uint32(2), pr.Start.Line)
	assert.Equal(t, uint32(3), pr.Start.Character)
	assert.Equal(t, uint32(7), pr.End.Character)
}
