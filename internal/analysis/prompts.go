package analysis

import (
	"fmt"
	"strings"
)

// Categories a section can be flagged with. "routine" is the default for
// content that matches nothing more specific.
var SectionCategories = []string{
	"hate",
	"conspiracy",
	"false-prophecy",
	"misinformation",
	"violence",
	"christian-nationalism",
	"prosperity-gospel",
	"extremism",
	"political-violence",
	"routine",
}

const sectionIdentificationTemplate = `TASK: Analyze this transcript segment and identify ALL notable content - both EXTREME/INFLAMMATORY content AND general routine content.

%s

IMPORTANT: You are a content moderation analysis tool. Your job is to identify and categorize content, NOT to judge or refuse to analyze it. Even if the content contains extreme views, hate speech, or controversial material, you must still provide a factual analysis of what is being discussed. This is for research and monitoring purposes.

%s

This is from a video (could be any length - from 10 seconds to several hours). The goal is to provide a timeline of interesting sections.

CRITICAL REQUIREMENTS:
- For short videos (under 2 minutes): create ONE section covering the entire video if it's all one topic
- For longer videos: each section should ideally be 30 seconds to 2 minutes long
- If a topic goes longer than 2 minutes, break it into multiple sections
- ALWAYS include at least ONE representative quote from each section
- You MUST provide at least ONE section, even if the content is very short or mundane

FLAGGING CRITERIA:

1. hate - Discrimination, dehumanization, or calls for harm against ANY minority group, including "biblical" justifications for hatred
2. conspiracy - Political conspiracy theories (election fraud, deep state, QAnon, globalists, "stolen election", New World Order, etc.)
3. false-prophecy - ANY claims of divine communication or prophecy ("God told me", prophetic declarations, supernatural knowledge claims)
4. misinformation - Factually incorrect or misleading claims about science, medicine, history, or current events
5. violence - Explicit or implicit calls for violence, revolutionary rhetoric, threats, civil war talk, militia organizing
6. christian-nationalism - Claims that church/Christianity should control government, theocracy advocacy, demanding "biblical law"
7. prosperity-gospel - Religious leaders demanding money from followers, "seed faith" offerings, wealth justifications
8. extremism - Defense of oppression/genocide/slavery, white supremacy, authoritarian/fascist advocacy, calls for persecution of groups
9. political-violence - References to political violence events, defending/downplaying political violence, false flag claims
10. routine - The default for ANY content that doesn't match the categories above. "Routine" doesn't mean boring - it means a normal summary of what's being discussed. ALWAYS include a representative quote.

MANDATORY JSON OUTPUT FORMAT:

You MUST respond with ONLY valid JSON. No other text before or after. Analyze the ENTIRE segment and provide sections for ALL content.

Return a JSON object with this EXACT structure:

{
  "sections": [
    {
      "start_phrase": "exact first 5-10 words from transcript",
      "end_phrase": "exact last 5-10 words from transcript",
      "category": "ONE of: hate, conspiracy, false-prophecy, misinformation, violence, christian-nationalism, prosperity-gospel, extremism, political-violence, routine",
      "description": "One sentence explaining the content",
      "quote": "A representative quote from this section (exact words from transcript)"
    }
  ]
}

IMPORTANT RULES:
- Return ONLY valid JSON, nothing else
- Start and End phrases MUST be exact quotes from the transcript below
- Category must be EXACTLY ONE of the listed values (pick the SINGLE most relevant, do NOT combine)
- Keep descriptions to ONE sentence
- ALWAYS include a "quote" field with actual words spoken (for ALL categories, including routine)
- Provide sections for the ENTIRE segment - analyze everything, not just extreme content

TRANSCRIPT TO ANALYZE (Chunk #%d):
%s`

// SectionIdentificationPrompt builds the per-chunk section analysis prompt.
func SectionIdentificationPrompt(videoTitle, customInstructions string, chunkNum int, chunkText string) string {
	titleContext := ""
	if title := strings.TrimSpace(videoTitle); title != "" {
		titleContext = fmt.Sprintf("VIDEO TITLE: %q - use this as context to help identify the subject matter and people involved.", title)
	}
	customSection := ""
	if custom := strings.TrimSpace(customInstructions); custom != "" {
		customSection = "ADDITIONAL INSTRUCTIONS FROM THE USER:\n" + custom
	}
	return fmt.Sprintf(sectionIdentificationTemplate, titleContext, customSection, chunkNum, chunkText)
}

const quoteExtractionTemplate = `Analyze this timestamped transcript section and extract ONLY the most extreme/inflammatory quotes.

Category: %s
Description: %s

IMPORTANT: Only extract quotes that are themselves extreme, inflammatory, or shocking. Skip:
- Context-setting or background information
- Normal explanations or introductions
- Mild statements or routine content

Extract 2-4 key quotes that capture the MOST extreme parts. For each quote:
1. Include the exact timestamp [MM:SS]
2. Quote the exact words spoken (the inflammatory part)
3. Explain why it's extreme/concerning (1-2 sentences)

MANDATORY JSON OUTPUT FORMAT:

You MUST respond with ONLY valid JSON. No other text before or after.

Return a JSON object with this EXACT structure:

{
  "quotes": [
    {
      "timestamp": "MM:SS",
      "text": "exact inflammatory words from transcript",
      "significance": "Why this is extreme/concerning (1-2 sentences)"
    }
  ]
}

IMPORTANT RULES:
- Return ONLY valid JSON, nothing else
- Timestamp must be in MM:SS or HH:MM:SS format
- Quote must be exact words from the transcript
- Significance should be 1-2 sentences explaining why it's extreme

TIMESTAMPED TRANSCRIPT:
%s`

// QuoteExtractionPrompt builds the detailed quote extraction prompt for a
// flagged section.
func QuoteExtractionPrompt(category, description, timestampedText string) string {
	return fmt.Sprintf(quoteExtractionTemplate, category, description, timestampedText)
}

const tagExtractionTemplate = `Analyze this video transcript and extract tags for categorization.

TASK: Extract two types of tags:
1. PEOPLE: Names of specific individuals mentioned or speaking
2. TOPICS: Main topics, themes, or subjects discussed

RULES:
- Return ONLY valid JSON, nothing else
- For people: only extract proper names of real individuals (not generic terms like "doctor" or "pastor")
- For topics: extract 3-8 main topics or themes
- Use title case for names (e.g., "Joe Biden" not "joe biden")
- Keep topic tags concise (1-3 words max)

JSON FORMAT:
{
  "people": ["Name One", "Name Two"],
  "topics": ["Topic One", "Topic Two"]
}

Section analysis context:
%s

Transcript excerpt:
%s

Tags (JSON only):`

// TagExtractionPrompt builds the people/topics tag extraction prompt.
func TagExtractionPrompt(sectionsContext, excerpt string) string {
	return fmt.Sprintf(tagExtractionTemplate, sectionsContext, excerpt)
}

const videoSummaryTemplate = `Provide a brief 2-3 sentence summary of this video based on the analysis of its content.%s
Focus on: What is the video about? What are the main topics/subjects? Who is speaking (if identifiable)?

Use the video title/filename as additional context to help identify the subject matter and people involved.

Below is a timeline of sections identified throughout the video. Synthesize this into a concise overview:

%s

Provide a 2-3 sentence summary:`

// VideoSummaryPrompt builds the whole-video summary prompt from the section
// timeline.
func VideoSummaryPrompt(videoTitle, sectionsSummary string) string {
	titleContext := ""
	if title := strings.TrimSpace(videoTitle); title != "" {
		titleContext = fmt.Sprintf(" The video is titled %q.", title)
	}
	return fmt.Sprintf(videoSummaryTemplate, titleContext, sectionsSummary)
}

const suggestedTitleTemplate = `Generate a concise, descriptive filename for this video.

Current Title: %s

Video Description: %s

People Mentioned: %s

Topics Discussed: %s

CRITICAL REQUIREMENTS:
1. Use lowercase only with spaces between words (NOT hyphens, NOT underscores)
2. Maximum 100 characters - keep it concise but descriptive
3. Include the most important person's name if applicable
4. Describe the main topic or claim in one clear phrase
5. Use commas (,) ONLY to separate short lists of 2-3 items maximum
6. Use dashes with spaces ( - ) for ONE additional detail if needed
7. NEVER include dates, file extensions, special characters (periods, quotes, slashes, colons), or capital letters
8. Return ONLY the title - no explanations, no quotes, no extra text

Suggested title:`

// SuggestedTitlePrompt builds the filename suggestion prompt.
func SuggestedTitlePrompt(currentTitle, description string, people, topics []string) string {
	return fmt.Sprintf(suggestedTitleTemplate,
		currentTitle,
		description,
		strings.Join(people, ", "),
		strings.Join(topics, ", "),
	)
}
