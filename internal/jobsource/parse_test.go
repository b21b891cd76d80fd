package jobsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"inner spaces", "  Build   data\tpipelines  ", "Build data pipelines"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"bullets normalized", "• AWS\n* SQL\n1. Python\n2) Spark", "- AWS\n- SQL\n- Python\n- Spark"},
		{"empty bullet dropped", "-  \nAWS", "AWS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.input))
		})
	}
}

func TestParseSections(t *testing.T) {
	text := `Platform Engineer

We run the infrastructure behind our checkout.

## What you'll do
- Own Kubernetes clusters
- Improve CI pipelines

Who we are:
Globex builds payment software.

Minimum Qualifications
- 5 years with Go
- Terraform

Nice to have
- Rust`

	job := ParseSections(text)
	assert.Equal(t, "Platform Engineer", job.Title)
	assert.Equal(t, "We run the infrastructure behind our checkout.", job.RoleSummary)
	assert.Equal(t, "Globex builds payment software.", job.CompanyContext)
	assert.Equal(t, []string{"Own Kubernetes clusters", "Improve CI pipelines"}, job.Responsibilities)
	assert.Equal(t, []string{"5 years with Go", "Terraform"}, job.Requirements)
}

func TestParseSections_NoHeadings(t *testing.T) {
	job := ParseSections("We are hiring a data engineer to build pipelines. You will work with AWS.")
	require.NotNil(t, job)
	assert.Empty(t, job.Title)
	assert.Equal(t, "We are hiring a data engineer to build pipelines. You will work with AWS.", job.RoleSummary)
	assert.Empty(t, job.Responsibilities)
	assert.NotNil(t, job.Requirements)
}

func TestParseSections_LongLinesAreNotHeadings(t *testing.T) {
	job := ParseSections("Requirements for this role change often, so read the whole description carefully.\nResponsibilities\n- Ship code")
	assert.Contains(t, job.RoleSummary, "Requirements for this role")
	assert.Equal(t, []string{"Ship code"}, job.Responsibilities)
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want Platform
	}{
		{"https://boards.greenhouse.io/acme/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/acme/abc", PlatformLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/1", PlatformWorkday},
		{"https://careers.acme.com/jobs/1", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			p := DetectPlatform(tt.url)
			assert.Equal(t, tt.want, p)
			assert.NotEmpty(t, p.ContentSelectors())
			assert.Contains(t, p.NoiseSelectors(), "form")
		})
	}
}

func TestExtractMainText_PlatformSelectors(t *testing.T) {
	html := `<html><body>
<div class="job__description body"><p>Build pipelines.</p><ul><li>AWS</li></ul></div>
<div class="voluntary-self-id">Gender</div>
<div class="other">Unrelated</div>
</body></html>`

	text, err := ExtractMainText(html, PlatformGreenhouse.ContentSelectors(), PlatformGreenhouse.NoiseSelectors()...)
	require.NoError(t, err)
	assert.Equal(t, "Build pipelines.\n\n- AWS", text)
}
