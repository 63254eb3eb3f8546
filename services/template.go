package services

import (
	"regexp"
	"strings"
)

// newsletterTemplate shows the model the expected structure of an issue.
// Every placeholder in angle brackets is replaced with generated content.
const newsletterTemplate = `# The Daily Brief - <date>

*Your source of insights on the news that matters*

<introduction>

---

## 🚀 Top Stories

### <topic1_title>
![topic1_image](topic1_image_url) <!-- replace with the topic image URL -->

**<topic1_summary>[Lead sentence linking the source](https://link_to_official_source), followed by one or two sentences carrying the core of the story.</topic1_summary>**

<topic1_details>

- First supporting fact or development.
- Second supporting fact or development.
- Third supporting fact or development.

</topic1_details>

<!-- Repeat the same structure for each remaining main topic. -->

## 📰 Also in the News

**XXX** has [verb](https://link_to_official_source) short paragraph summarizing the secondary story in two or three sentences.

**YYY** [verb](https://link_to_official_source) short paragraph summarizing the secondary story in two or three sentences.

<!-- Repeat for each remaining secondary topic. -->

---

<closing_sentence>
`

// newsletterRe matches the tagged newsletter block in a model reply. Models
// sometimes echo the tag name they were shown the template under, so
// <newsletter_template> is accepted as an alias.
var newsletterRe = regexp.MustCompile(`(?s)<newsletter(_template)?>(.*?)</newsletter(_template)?>`)

// ParseNewsletterOutput extracts the newsletter body from a raw model reply.
// Replies without tags are returned trimmed as-is.
func ParseNewsletterOutput(raw string) string {
	if m := newsletterRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[2])
	}
	return strings.TrimSpace(raw)
}
