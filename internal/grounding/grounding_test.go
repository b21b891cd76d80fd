package grounding

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileText = `Built ETL pipelines processing 10TB/day on AWS with PySpark.
Led a team of 5 engineers at Acme Corporation.
B.S. Computer Science, State University, 2016.`

func TestExtractEntities(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "acronyms and numbers",
			text: "Built ETL pipelines processing 10TB/day on AWS.",
			want: []string{"ETL", "10", "AWS"},
		},
		{
			name: "sentence initial capital skipped",
			text: "Led the migration. Then moved to Kafka.",
			want: []string{"Kafka"},
		},
		{
			name: "salutation and sign off allowed",
			text: "Dear Hiring Manager,\nI am excited.\nSincerely,\nJane",
			want: nil,
		},
		{
			name: "placeholders ignored",
			text: "I would love to join [Company] as a [Role].",
			want: nil,
		},
		{
			name: "possessive split",
			text: "I admire Acme's platform.",
			want: []string{"Acme"},
		},
		{
			name: "thousands separators removed",
			text: "My target is $120,000 per year.",
			want: []string{"120000"},
		},
		{
			name: "spelled out numbers",
			text: "I led three teams for one year.",
			want: []string{"3"},
		},
		{
			name: "mixed case at sentence start",
			text: "PySpark is my daily tool.",
			want: []string{"PySpark"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractEntities(tt.text))
		})
	}
}

func TestCorpus_Traceable(t *testing.T) {
	c := NewCorpus(profileText, "Seeking a data engineer with Spark and AWS experience.")

	tests := []struct {
		name      string
		statement string
		want      bool
	}{
		{"verbatim", "Built ETL pipelines processing 10TB/day on AWS with PySpark.", true},
		{"case and spacing", "built   etl pipelines processing 10tb/day on aws with pyspark", true},
		{"paraphrase with inflection", "Led a team of 5 engineers", true},
		{"paraphrase reordering", "ETL pipeline built on AWS processing 10TB/day", true},
		{"invented number", "Led a team of 12 engineers at Acme", false},
		{"invented employer", "Built ETL pipelines at Globex", false},
		{"unrelated", "Won a national chess championship", false},
		{"blank", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Traceable(tt.statement))
		})
	}
}

func TestCorpus_Untraceable(t *testing.T) {
	c := NewCorpus(profileText)
	got := c.Untraceable([]string{
		"Built ETL pipelines on AWS",
		"Managed a $2M budget",
		"Computer Science degree from State University",
	})
	assert.Equal(t, []string{"Managed a $2M budget"}, got)
}

func TestCorpus_Grounded(t *testing.T) {
	c := NewCorpus(profileText)

	assert.True(t, c.Grounded("Acme"))
	assert.True(t, c.Grounded("Corp"), "prefix of Corporation")
	assert.True(t, c.Grounded("10"))
	assert.True(t, c.Grounded("ETL"))
	assert.False(t, c.Grounded("GCP"))
	assert.False(t, c.Grounded("20"))
}

func TestCorpus_Aliases(t *testing.T) {
	c := NewCorpus("Operated Kubernetes clusters and wrote services in Golang.")
	assert.True(t, c.Grounded("k8s"))
	assert.True(t, c.Grounded("Go"))
	assert.True(t, NewCorpus("Deployed to Amazon Web Services").Grounded("AWS"))
}

func TestCorpus_NovelEntities(t *testing.T) {
	c := NewCorpus(profileText, "Data Engineer at Initech. Requirements: Spark, SQL.")

	draft := `Dear Hiring Manager,
I am excited to apply to Initech. At Acme I built ETL pipelines on AWS and PySpark.
I also hold a PhD from MIT and saved $3M.
Sincerely,
[Your Name]`

	assert.Equal(t, []string{"PhD", "MIT", "3"}, c.NovelEntities(draft))
}

func TestCorpus_PrefixMatchesOnlyShorterEntity(t *testing.T) {
	c := NewCorpus("Data Engineering lead. Built ETL pipelines at Acme Corporation.")

	assert.True(t, c.Grounded("Corp"))
	assert.Equal(t, []string{"Databricks", "Datadog", "Buildkite"},
		c.NovelEntities("I scaled deployments for Databricks, Datadog and Buildkite."))
}

func TestCorpus_SentenceInitialNames(t *testing.T) {
	c := NewCorpus(profileText)

	assert.Equal(t, []string{"Google", "2", "Stripe"},
		c.NovelEntities("Google promoted me after two years. Stripe then hired me."))
	assert.Empty(t, c.NovelEntities("Built ETL pipelines on AWS. Passionate about data. Additionally, I led a team of five engineers."))
	assert.Empty(t, c.NovelEntities("Reliability matters to me. I value reliability."), "word also used in lowercase")
	assert.Equal(t, []string{"Kafka"}, ExtractEntities("Kafka is fast. I ran Kafka."), "later mid-sentence use marks a name")
}

func TestCorpus_Unstated(t *testing.T) {
	c := NewCorpus("I built ETL pipelines at Acme.")

	assert.Empty(t, c.Unstated("Passionate engineer. I built ETL pipelines at Acme."))
	assert.Equal(t, []string{"Globex"}, c.Unstated("I built ETL pipelines at Globex."))
}

func TestCorpus_Empty(t *testing.T) {
	var c *Corpus
	assert.True(t, c.Empty())
	assert.False(t, c.Contains("x"))
	assert.False(t, c.Traceable("Built ETL"))
	assert.True(t, NewCorpus("", "  ").Empty())
}

// Any sentence assembled only from corpus sentences is traceable and names no
// novel entities.
func TestCorpus_SubsetsAreAlwaysGrounded(t *testing.T) {
	sentences := strings.Split(profileText, "\n")
	c := NewCorpus(profileText)
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		var picked []string
		for _, s := range sentences {
			if r.IntN(2) == 0 {
				picked = append(picked, s)
			}
		}
		text := strings.Join(picked, " ")
		require.Empty(t, c.NovelEntities(text), text)
		for _, s := range picked {
			require.True(t, c.Traceable(s), s)
		}
	}
}

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"build", "pipelin", "aws"}, Terms("Building the pipelines on AWS, building pipeline"))
	assert.Equal(t, []string{"kubernet"}, Terms("k8s"))
	assert.Empty(t, Terms("the and of"))
}
