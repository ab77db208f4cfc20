package format

// LLM prompt template — data only, no logic.

// formatPrompt turns a raw transcript into structured markdown.
// Args: source URL, video ID, total duration (H:MM:SS), segment count, transcript text.
const formatPrompt = `You are given the raw transcript of a YouTube video. Rewrite it as a clean, structured markdown document.

Video: %s
ID: %s
Duration: %s
Segments: %d

Rules:
- Infer a descriptive title from the content and use it as the top-level # heading
- Break the content into sections with ## headings and subsections with ### headings
- When the transcript carries [timestamp] markers, keep the marker of each section's first line next to its heading
- Put code, commands, and config into fenced code blocks with a language tag
- Remove filler words and false starts ("um", "you know", repeated phrases) while preserving meaning and technical terms exactly
- Keep the speaker's claims as stated — do not add information that is not in the transcript
- Return ONLY the markdown document. No preamble, no commentary, no code fence around the whole output.

Transcript:
%s`
