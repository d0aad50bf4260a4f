package article

import "testing"

func TestBuilder(t *testing.T) {
	var b Builder
	b.Heading(2, "Tips & Tricks")
	b.Paragraph("line one\nline <two>")
	b.Heading(9, "deep")

	want := "<h2>Tips &amp; Tricks</h2>\n<p>line one<br>line &lt;two&gt;</p>\n<h6>deep</h6>\n"
	if got := b.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
