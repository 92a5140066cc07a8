package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestGetText(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(
		`<div><b>Château</b> <i>Margaux</i> — 4.5/5</div>`,
	))
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, GetText(doc), "Château Margaux")
}

func TestCleanText(t *testing.T) {
	require.Equal(
		t,
		"4,2/5 - 1 234 avis",
		CleanText("  4,2/5   -\n 1 234 avis \t"),
	)
}
