package prompt

import (
	"blogsmith/internal/core"
	"blogsmith/internal/render"
	"fmt"
	"regexp"
	"strings"
)

const (
	// NoBodyPlaceholder stands in for an empty post body.
	NoBodyPlaceholder = "(No additional post content)"
	// NoCommentsPlaceholder stands in for an empty comment list.
	NoCommentsPlaceholder = "No comments available."

	// GroundingTemplate is appended when the source text carries a link.
	GroundingTemplate = "\n\nPlease ground your blog content using information specifically from this link: %s"

	// ImageTemplate is the illustration prompt for a generated title.
	ImageTemplate = `Create a visually stunning, quality 3D rendered photo for a tech blog. The image should be precise and artistic, representing the core themes of this title: "%s". Focus on a modern, clean aesthetic.`

	outputContract = `
Return the response as a JSON object with exactly this structure:
{
  "title": "Your Catchy Title",
  "metaDescription": "Your Meta Description",
  "content": "Your blog content with HTML tags."
}
IMPORTANT: The entire response must be a single, valid JSON object. Ensure all string values, especially the "content" field, have properly escaped double quotes (e.g., use \" for quotes inside the string).`
)

// linkRegex finds absolute links in post text.
var linkRegex = regexp.MustCompile(`https?://[^\s)]+`)

// ExtractLinks returns every absolute link in text, in order of appearance.
func ExtractLinks(text string) []string {
	return linkRegex.FindAllString(text, -1)
}

// ForTopic builds the article prompt for a Reddit topic and its flattened comments.
func ForTopic(topic core.Topic, comments []string) string {
	var p strings.Builder

	p.WriteString(fmt.Sprintf("Write a detailed, engaging, and original blog post (500-700 words) about the following trending Reddit topic from r/%s.\n\n", topic.Subreddit))

	p.WriteString("**Reddit Post Details:**\n")
	p.WriteString(fmt.Sprintf("Post Title: %q\n", topic.Title))
	body := strings.TrimSpace(topic.SelfText)
	if body == "" {
		body = NoBodyPlaceholder
	}
	p.WriteString(fmt.Sprintf("Post Content: %s\n\n", body))

	p.WriteString("**Comments from the community:**\n")
	p.WriteString(formatComments(comments))
	p.WriteString("\n\n")

	p.WriteString("**Instructions:**\n")
	p.WriteString("1. Create a catchy, SEO-friendly title for the blog post.\n")
	p.WriteString("2. Write a meta description (150-160 characters).\n")
	p.WriteString("3. The main content should be well-structured with headings (<h2>), paragraphs (<p>), and bullet points (<ul><li>).\n")
	p.WriteString("4. Incorporate insights from the Reddit post and comments.\n")
	p.WriteString("5. Include a \"Key Takeaways\" section at the end.\n")
	p.WriteString(fmt.Sprintf("6. At the bottom, add a \"Source\" section with a link to the original Reddit post: %s\n", render.SourceSection(topic.URL)))
	p.WriteString("7. The tone should be informative and accessible.\n")
	p.WriteString(outputContract)

	if links := ExtractLinks(topic.SelfText + " " + topic.Title); len(links) > 0 {
		p.WriteString(fmt.Sprintf(GroundingTemplate, links[0]))
	}

	return p.String()
}

// ForSubject builds the article prompt for a free-text subject.
func ForSubject(subject string) string {
	var p strings.Builder

	p.WriteString(fmt.Sprintf("Write a detailed, engaging, and original blog post (500-700 words) about the following topic: %q.\n\n", strings.TrimSpace(subject)))
	p.WriteString("**Instructions:**\n")
	p.WriteString("1. Create a catchy, SEO-friendly title for the blog post.\n")
	p.WriteString("2. Write a meta description (150-160 characters).\n")
	p.WriteString("3. The main content should be well-structured with headings (<h2>), paragraphs (<p>), and bullet points (<ul><li>).\n")
	p.WriteString("4. Include a \"Key Takeaways\" section at the end.\n")
	p.WriteString("5. The tone should be informative and accessible.\n")
	p.WriteString(outputContract)

	if links := ExtractLinks(subject); len(links) > 0 {
		p.WriteString(fmt.Sprintf(GroundingTemplate, links[0]))
	}

	return p.String()
}

// ForImage builds the illustration prompt for a generated title.
func ForImage(title string) string {
	return fmt.Sprintf(ImageTemplate, strings.TrimSpace(title))
}

func formatComments(comments []string) string {
	if len(comments) == 0 {
		return NoCommentsPlaceholder
	}
	numbered := make([]string, len(comments))
	for i, c := range comments {
		numbered[i] = fmt.Sprintf("Comment %d: %s", i+1, c)
	}
	return strings.Join(numbered, "\n\n")
}
