package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: "  Trip logged: OK \n", expected: "Trip logged OK"},
		{in: "- Error -", expected: "Error"},
		{in: "::--", expected: ""},
		{in: "\tno\u0007bell ", expected: "nobell"},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, CleanText(test.in, ":-"))
	}
}

func TestGetTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<p class="x">first <b>bold</b></p>
			<p class="x"> - </p>
			<p class="x">second:</p>
		</div>
	`))
	require.NoError(t, err)

	texts := GetTexts(doc.Find("p.x"), ":-")
	require.Equal(t, []string{"first bold", "second"}, texts)
}
