package prompts

const parseSpec = `Respond with a JSON object matching this exact structure:

{
  "title": "<working title>",
  "setting": "<place, period, occasion>",
  "summary": "<one-paragraph summary>",
  "players": ["<name1>", "<name2>"],
  "key_events": ["<event1>", "<event2>"]
}

Field constraints:
- title: A working title for the session's story. Non-empty.
- setting: Where and when the session takes place, as the notes give it.
- summary: One paragraph covering the session from opening to accusation.
- players: Every participant named in the notes, spelled exactly as the
  notes spell them. At least one entry.
- key_events: The session's turning points in the order they occurred.
  May be empty only if the notes record no discrete events.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Include no field beyond the five listed above
- Never invent players or events absent from the notes`

const photoSpec = `Respond with a JSON object matching this exact structure:

{
  "evidence_id": "<id>",
  "description": "<what the photograph shows>",
  "subjects": ["<name1>", "<name2>"],
  "mood": "<one or two words>",
  "details": ["<detail1>", "<detail2>"]
}

Field constraints:
- evidence_id: The id of the photograph being analyzed, exactly as given
  in the prompt.
- description: What the frame actually shows, in two or three sentences.
- subjects: People identifiable in the frame. Empty if none can be named.
- mood: The overall register of the image (e.g., "festive", "strained").
- details: Concrete observations a reporter could cite. Empty if the
  image offers none.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Describe one photograph per response
- Report only what is visible; never speculate beyond the frame`

const annotateSpec = `Respond with a JSON object matching this exact structure:

{
  "annotations": [
    {
      "evidence_id": "<id>",
      "summary": "<what the item establishes>",
      "relevance": "central",
      "mentions": ["<name1>"]
    }
  ]
}

Field constraints:
- annotations: One entry per evidence item provided in the prompt, in the
  same order. Never skip an item.
- evidence_id: The item's id exactly as given.
- summary: What the item establishes in the session narrative. Paraphrase;
  never quote confidential material.
- relevance: Exactly one of "central", "supporting", or "background".
- mentions: Players the item names or implicates. Empty if none.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Annotate every item in the batch, only items in the batch
- Director material must not surface in any summary`

const arcsSpec = `Respond with a JSON object matching this exact structure:

{
  "arcs": [
    {
      "title": "<arc title>",
      "players": ["<name1>"],
      "summary": "<what this thread is>",
      "evidence_refs": ["<evidence id>"],
      "beats": ["<beat1>", "<beat2>"]
    }
  ],
  "lead": "<title of the lead arc>",
  "threads": ["<loose thread>"]
}

Field constraints:
- arcs: At least one arc. Each arc names at least one player and at least
  one beat.
- players: Names drawn from the session roster; collectively the arcs
  must cover every player.
- evidence_refs: Ids from the provided evidence list only.
- lead: The title of exactly one arc in the list; the article opens here.
- threads: Unresolved questions worth flagging for the editor. Optional.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Cite evidence by id, never by title
- The lead value must match one arc title verbatim`

const outlineSpec = `Respond with a JSON object matching this exact structure:

{
  "headline": "<headline>",
  "angle": "<the article's angle in one sentence>",
  "sections": [
    {
      "id": "<kebab-case-id>",
      "heading": "<section heading>",
      "purpose": "<what this section accomplishes>",
      "arc_refs": ["<arc title>"],
      "evidence_refs": ["<evidence id>"]
    }
  ]
}

Field constraints:
- headline: The article's working headline.
- angle: One sentence stating the article's through-line.
- sections: At least one section, in reading order. Each id is lowercase
  letters, digits, and hyphens, unique within the outline.
- arc_refs: Titles of approved arcs this section draws on. Optional.
- evidence_refs: Ids from the evidence list this section will cite.
  Optional.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- The opening section must carry the lead arc
- Cite only evidence ids that exist in the provided list`

const articleSpec = `Respond with a JSON object matching this exact structure:

{
  "headline": "<headline>",
  "byline": "<byline>",
  "lede": "<opening paragraph>",
  "sections": [
    {
      "section_id": "<outline section id>",
      "heading": "<section heading>",
      "body": "<section prose>",
      "pull_quote": "<optional pull quote>"
    }
  ]
}

Field constraints:
- headline: May refine the outline headline; keep its substance.
- byline: The desk attribution (e.g., "The Society Desk").
- lede: The opening paragraph; it carries the lead arc.
- sections: Exactly one entry per outline section, carrying that
  section's id in section_id, in outline order.
- body: The section's full prose.
- pull_quote: A short quotable line from the section, or omit the field.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Quote exposed evidence freely; paraphrase everything confidential
- Never reproduce a run of text from material not revealed at the table`

const advisorySpec = `Respond with a JSON object matching this exact structure:

{
  "satisfied": true,
  "concerns": ["<specific concern>"]
}

Field constraints:
- satisfied: Whether the document is good enough to proceed as-is.
- concerns: Specific, actionable problems. Empty when satisfied. Each
  concern names the section, arc, or passage it refers to.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Judge the document in front of you, not the one you would have written
- A document with unresolved structural errors is never satisfactory`

var specs = map[Stage]string{
	StageParse:    parseSpec,
	StagePhoto:    photoSpec,
	StageAnnotate: annotateSpec,
	StageArcs:     arcsSpec,
	StageOutline:  outlineSpec,
	StageArticle:  articleSpec,
	StageAdvisory: advisorySpec,
}

// Spec returns the hardcoded specification for a pipeline stage.
// Specifications define the expected output format and behavioral constraints.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
