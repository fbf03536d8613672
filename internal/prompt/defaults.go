package prompt

// DefaultTemplates are the built-in dialogue and exploration templates
// used when no override directory is configured. Both render the same
// output-JSON schema instructions in the system prompt so the LLM Adapter's
// parsing contract (spec §4.3) can stay provider-agnostic.
var DefaultTemplates = map[string]*Template{
	"dialogue": {
		ID: "dialogue",
		System: `You are the Writer in an interactive narrative runtime. Generate one candidate ` +
			`branch of dialogue that stays in the voice of the current scene and never breaks ` +
			`the fourth wall. Respond with a single JSON object and nothing else, matching this ` +
			`shape: {"text": string, "character_voice": string, "tags": [string], ` +
			`"return_path": string, "return_path_confidence": number, "confidence_score": number}. ` +
			`Do not include narration outside the JSON object. Do not invent return paths outside ` +
			`the ones you are given.`,
		User: `Scene: {{.SceneName}}
Character temperament: courage {{.Courage}}, caution {{.Caution}}
Carrying: {{.Inventory}}
Recent choices: {{.RecentChoices}}
Valid return paths: {{.ReturnPaths}}

Write the next line of dialogue for this scene.`,
	},
	"exploration": {
		ID: "exploration",
		System: `You are the Writer in an interactive narrative runtime. Generate one candidate ` +
			`branch of exploration prose — description, discovery, or environmental detail — that ` +
			`fits the current scene. Respond with a single JSON object and nothing else, matching ` +
			`this shape: {"text": string, "tags": [string], "return_path": string, ` +
			`"return_path_confidence": number, "confidence_score": number}. Do not include narration ` +
			`outside the JSON object. Do not invent return paths outside the ones you are given.`,
		User: `Scene: {{.SceneName}}
Character temperament: courage {{.Courage}}, caution {{.Caution}}
Carrying: {{.Inventory}}
Recent choices: {{.RecentChoices}}
Valid return paths: {{.ReturnPaths}}

Write the next beat of exploration for this scene.`,
	},
}
