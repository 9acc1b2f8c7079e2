package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStyles_Render(t *testing.T) {
	styles := DefaultStyles()

	assert.Contains(t, styles.TaskTitle.Render("title"), "title")
	assert.Contains(t, styles.ErrorMsg.Render("boom"), "boom")
	assert.Contains(t, styles.Dialog.Render("confirm"), "confirm")
}
