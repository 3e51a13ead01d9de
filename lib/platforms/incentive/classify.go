package incentive

import (
	"bikelog/lib/htmlutil"
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

const (
	notificationSelector = ".notification"
	successSelector      = ".success"
	// stripped from every extracted message
	strippedRunes = ":-"
)

// Result is the text the trip log page shows after a submission.
type Result struct {
	Notifications []string
	Successes     []string
}

// Succeeded reports whether the page confirmed that the trip was logged.
func (r Result) Succeeded() bool {
	return len(r.Successes) > 0
}

// Classify extracts notification and success messages from a trip log page.
// Markup that can't be parsed yields an empty Result.
func Classify(body []byte) Result {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Result{}
	}
	return Result{
		Notifications: htmlutil.GetTexts(doc.Find(notificationSelector), strippedRunes),
		Successes:     htmlutil.GetTexts(doc.Find(successSelector), strippedRunes),
	}
}
