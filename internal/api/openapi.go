package api

import (
	"github.com/parlorgames/byline/internal/artifacts"
	"github.com/parlorgames/byline/internal/config"
	"github.com/parlorgames/byline/internal/prompts"
	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/openapi"
)

// SpecJSON builds the OpenAPI document for the mounted API surface and
// returns it serialized. Artifact paths are present only when a database
// backs the artifact system, matching what registerRoutes mounts.
func SpecJSON(cfg *config.Config) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(sessionSchemas())
	spec.Components.AddSchemas(promptSchemas())
	spec.Components.AddSchemas(storageSchemas())

	addSessionPaths(spec)
	addPromptPaths(spec)

	if cfg.RequiresDatabase() {
		spec.Components.AddSchemas(artifactSchemas())
		addArtifactPaths(spec)
	}

	addStoragePaths(spec)

	return openapi.MarshalJSON(spec)
}

func enumOf[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// pageOf describes a pagination.PageResult wrapping the named item schema.
func pageOf(item string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef(item)},
			"total":       {Type: "integer", Description: "Total matching records"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	}
}

// searchOf describes a search request body: PageRequest fields plus the
// resource's filter fields.
func searchOf(filters map[string]*openapi.Schema) *openapi.Schema {
	props := map[string]*openapi.Schema{
		"page":      {Type: "integer", Description: "Page number (1-indexed)"},
		"page_size": {Type: "integer", Description: "Results per page"},
		"search":    {Type: "string", Description: "Search query"},
		"sort":      {Type: "string", Description: "Comma-separated sort fields. Prefix with - for descending."},
	}
	for name, schema := range filters {
		props[name] = schema
	}
	return &openapi.Schema{Type: "object", Properties: props}
}

// listParams returns the standard pagination query parameters plus any
// resource-specific filter parameters.
func listParams(extra ...*openapi.Parameter) []*openapi.Parameter {
	params := []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)", false),
		openapi.QueryParam("page_size", "integer", "Results per page", false),
		openapi.QueryParam("search", "string", "Search query", false),
		openapi.QueryParam("sort", "string", "Comma-separated sort fields", false),
	}
	return append(params, extra...)
}

func binaryResponse(description string) *openapi.Response {
	return &openapi.Response{
		Description: description,
		Content: map[string]*openapi.MediaType{
			"application/octet-stream": {
				Schema: &openapi.Schema{Type: "string", Format: "binary"},
			},
		},
	}
}

func sessionSchemas() map[string]*openapi.Schema {
	phaseSchema := &openapi.Schema{
		Type:        "string",
		Description: "Current pipeline phase",
		Enum:        enumOf(state.Phases()),
	}
	approvalSchema := &openapi.Schema{
		Type:        "string",
		Description: "Checkpoint name",
		Enum:        enumOf(state.ApprovalTypes()),
	}

	sessionProps := map[string]*openapi.Schema{
		"id":                {Type: "string", Format: "uuid"},
		"theme":             {Type: "string", Description: "Evening's mystery theme"},
		"phase":             phaseSchema,
		"awaiting_approval": {Type: "boolean", Description: "Whether the session is suspended at a checkpoint"},
		"approval":          {Type: "string", Description: "Pending checkpoint, null when not suspended", Enum: enumOf(state.ApprovalTypes())},
		"created_at":        {Type: "string", Format: "date-time"},
		"updated_at":        {Type: "string", Format: "date-time"},
	}

	detailProps := make(map[string]*openapi.Schema, len(sessionProps)+1)
	for name, schema := range sessionProps {
		detailProps[name] = schema
	}
	detailProps["state"] = &openapi.Schema{
		Type:        "object",
		Description: "Complete workflow state: parsed input, evidence, analyses, drafts, approvals, and history",
	}

	return map[string]*openapi.Schema{
		"Session":       {Type: "object", Properties: sessionProps},
		"SessionDetail": {Type: "object", Properties: detailProps},
		"SessionPage":   pageOf("Session"),
		"SessionSearch": searchOf(map[string]*openapi.Schema{
			"phase":             {Type: "string", Description: "Filter by pipeline phase"},
			"awaiting_approval": {Type: "boolean", Description: "Filter by suspension status"},
			"approval":          {Type: "string", Description: "Filter by pending checkpoint"},
		}),
		"CreateSession": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"theme":     {Type: "string", Description: "Evening's mystery theme"},
				"raw_input": {Type: "string", Description: "Director's raw narrative notes"},
			},
			Required: []string{"theme", "raw_input"},
		},
		"ApproveSession": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"checkpoint":  approvalSchema,
				"approved_by": {Type: "string", Description: "Reviewer identity, preserved for audit"},
				"note":        {Type: "string", Description: "Optional review note"},
			},
			Required: []string{"checkpoint", "approved_by"},
		},
		"RollbackSession": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"target": approvalSchema,
			},
			Required: []string{"target"},
		},
	}
}

func promptSchemas() map[string]*openapi.Schema {
	stageSchema := &openapi.Schema{
		Type:        "string",
		Description: "Pipeline stage the prompt applies to",
		Enum:        enumOf(prompts.Stages()),
	}

	overrideProps := map[string]*openapi.Schema{
		"name":         {Type: "string", Description: "Unique prompt name"},
		"stage":        stageSchema,
		"instructions": {Type: "string", Description: "Instruction text composed into the stage prompt"},
		"description":  {Type: "string", Description: "Optional operator-facing description"},
	}

	return map[string]*openapi.Schema{
		"Prompt": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"name":         {Type: "string"},
				"stage":        stageSchema,
				"instructions": {Type: "string"},
				"description":  {Type: "string"},
				"active":       {Type: "boolean", Description: "Whether this override is live for its stage"},
			},
		},
		"PromptPage": pageOf("Prompt"),
		"PromptSearch": searchOf(map[string]*openapi.Schema{
			"stage":  {Type: "string", Description: "Filter by stage"},
			"name":   {Type: "string", Description: "Case-insensitive name contains match"},
			"active": {Type: "boolean", Description: "Filter by active status"},
		}),
		"CreatePrompt": {
			Type:       "object",
			Properties: overrideProps,
			Required:   []string{"name", "stage", "instructions"},
		},
		"UpdatePrompt": {
			Type:       "object",
			Properties: overrideProps,
			Required:   []string{"name", "stage", "instructions"},
		},
		"StageContent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"stage":   stageSchema,
				"content": {Type: "string", Description: "Effective text for the stage"},
			},
		},
	}
}

func artifactSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Artifact": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"session_id":   {Type: "string", Format: "uuid"},
				"kind":         {Type: "string", Enum: enumOf([]artifacts.Kind{artifacts.KindArticle, artifacts.KindContent})},
				"storage_key":  {Type: "string", Description: "Blob storage key"},
				"content_type": {Type: "string"},
				"size_bytes":   {Type: "integer"},
				"created_at":   {Type: "string", Format: "date-time"},
			},
		},
		"ArtifactPage": pageOf("Artifact"),
		"ArtifactSearch": searchOf(map[string]*openapi.Schema{
			"session_id": {Type: "string", Format: "uuid", Description: "Filter by owning session"},
			"kind":       {Type: "string", Description: "Filter by artifact kind"},
		}),
	}
}

func storageSchemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"BlobMeta": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"key":            {Type: "string"},
				"content_type":   {Type: "string"},
				"content_length": {Type: "integer"},
				"last_modified":  {Type: "string", Format: "date-time"},
			},
		},
		"BlobList": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"blobs":       {Type: "array", Items: openapi.SchemaRef("BlobMeta")},
				"next_marker": {Type: "string", Description: "Continuation marker, absent on the last page"},
			},
		},
	}
}

func addSessionPaths(spec *openapi.Spec) {
	tags := []string{"sessions"}

	spec.Paths["/sessions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List sessions",
			Tags:    tags,
			Parameters: listParams(
				openapi.QueryParam("phase", "string", "Filter by pipeline phase", false),
				openapi.QueryParam("awaiting_approval", "boolean", "Filter by suspension status", false),
				openapi.QueryParam("approval", "string", "Filter by pending checkpoint", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated sessions", "SessionPage"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a session",
			Description: "Opens a session from operator notes and runs the pipeline to its first checkpoint.",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("CreateSession", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Session suspended at its first checkpoint", "SessionDetail"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/sessions/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search sessions",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("SessionSearch", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated sessions", "SessionPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/sessions/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a session",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Session with full workflow state", "SessionDetail"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a session",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Session deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/sessions/{id}/approve"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Approve the pending checkpoint",
			Description: "Releases the named checkpoint and resumes the pipeline until its next stop. The checkpoint must match the pending one.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			RequestBody: openapi.RequestBodyJSON("ApproveSession", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Session at its next checkpoint or complete", "SessionDetail"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/sessions/{id}/rollback"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Roll back to a granted checkpoint",
			Description: "Rewinds the session to a checkpoint it already passed, discarding downstream work, then regenerates forward.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			RequestBody: openapi.RequestBodyJSON("RollbackSession", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Session regenerated to its next checkpoint", "SessionDetail"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/sessions/{id}/resume"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Resume an interrupted session",
			Description: "Continues a session that stopped between checkpoints after a crash. Suspended and terminal sessions are returned unchanged.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Session after the pipeline ran to its next stop", "SessionDetail"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addPromptPaths(spec *openapi.Spec) {
	tags := []string{"prompts"}

	spec.Paths["/prompts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List prompt overrides",
			Tags:    tags,
			Parameters: listParams(
				openapi.QueryParam("stage", "string", "Filter by stage", false),
				openapi.QueryParam("name", "string", "Case-insensitive name contains match", false),
				openapi.QueryParam("active", "boolean", "Filter by active status", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated prompts", "PromptPage"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Create a prompt override",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("CreatePrompt", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}

	spec.Paths["/prompts/stages"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List pipeline stages",
			Tags:    tags,
			Responses: map[int]*openapi.Response{
				200: {
					Description: "Valid stage names",
					Content: map[string]*openapi.MediaType{
						"application/json": {
							Schema: &openapi.Schema{
								Type:  "array",
								Items: &openapi.Schema{Type: "string", Enum: enumOf(prompts.Stages())},
							},
						},
					},
				},
			},
		},
	}

	spec.Paths["/prompts/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search prompt overrides",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("PromptSearch", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated prompts", "PromptPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/prompts/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a prompt override",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Put: &openapi.Operation{
			Summary:     "Update a prompt override",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			RequestBody: openapi.RequestBodyJSON("UpdatePrompt", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated prompt", "Prompt"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete a prompt override",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Prompt deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/prompts/{stage}/instructions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Effective instructions for a stage",
			Description: "Returns the active override if one exists, otherwise the compiled default.",
			Tags:        tags,
			Parameters: []*openapi.Parameter{
				{
					Name:     "stage",
					In:       "path",
					Required: true,
					Schema:   &openapi.Schema{Type: "string", Enum: enumOf(prompts.Stages())},
				},
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Stage instructions", "StageContent"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/prompts/{stage}/spec"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:     "Output specification for a stage",
			Description: "Specifications are compiled in and cannot be overridden.",
			Tags:        tags,
			Parameters: []*openapi.Parameter{
				{
					Name:     "stage",
					In:       "path",
					Required: true,
					Schema:   &openapi.Schema{Type: "string", Enum: enumOf(prompts.Stages())},
				},
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Stage specification", "StageContent"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/prompts/{id}/activate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Activate a prompt override",
			Description: "Atomically deactivates any currently active prompt for the same stage.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Activated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/prompts/{id}/deactivate"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Deactivate a prompt override",
			Description: "The stage falls back to its compiled default instructions.",
			Tags:        tags,
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Prompt ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Deactivated prompt", "Prompt"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addArtifactPaths(spec *openapi.Spec) {
	tags := []string{"artifacts"}

	spec.Paths["/artifacts"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List artifacts",
			Tags:    tags,
			Parameters: listParams(
				openapi.QueryParam("session_id", "string", "Filter by owning session", false),
				openapi.QueryParam("kind", "string", "Filter by artifact kind", false),
			),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated artifacts", "ArtifactPage"),
			},
		},
	}

	spec.Paths["/artifacts/search"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Search artifacts",
			Tags:        tags,
			RequestBody: openapi.RequestBodyJSON("ArtifactSearch", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated artifacts", "ArtifactPage"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/artifacts/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find an artifact",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Artifact ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Artifact metadata", "Artifact"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/artifacts/{id}/download"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download an artifact",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Artifact ID")},
			Responses: map[int]*openapi.Response{
				200: binaryResponse("Artifact content"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/artifacts/session/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "List a session's artifacts",
			Tags:       tags,
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Session ID")},
			Responses: map[int]*openapi.Response{
				200: {
					Description: "Artifacts recorded for the session",
					Content: map[string]*openapi.MediaType{
						"application/json": {
							Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Artifact")},
						},
					},
				},
			},
		},
	}
}

func addStoragePaths(spec *openapi.Spec) {
	tags := []string{"storage"}

	keyParam := &openapi.Parameter{
		Name:        "key",
		In:          "path",
		Required:    true,
		Description: "Blob storage key, may contain slashes",
		Schema:      &openapi.Schema{Type: "string"},
	}

	spec.Paths["/storage"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List blobs",
			Tags:    tags,
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("prefix", "string", "Key prefix filter", false),
				openapi.QueryParam("marker", "string", "Continuation marker from a previous page", false),
				openapi.QueryParam("max_results", "integer", "Maximum blobs to return", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob listing", "BlobList"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}

	spec.Paths["/storage/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Blob metadata",
			Tags:       tags,
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Blob metadata", "BlobMeta"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}

	spec.Paths["/storage/download/{key}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Download a blob",
			Tags:       tags,
			Parameters: []*openapi.Parameter{keyParam},
			Responses: map[int]*openapi.Response{
				200: binaryResponse("Blob content"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}
