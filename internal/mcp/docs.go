package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `estimate-poker runs planning-poker rounds: Projects -> Tasks -> Estimations.

Core concepts:
- Session: one local user at a time. sign_in accepts any email and password.
- Project: owned by the user who created it. Only the owner completes or deletes it and adds tasks.
- Task: carries a share token (estimation_url) that lets anyone open its estimation round.
- Estimation: one per user per task, in days. Submitting again replaces the earlier value.

Workflow:
1) sign_in (or get_session to check).
2) create_project, then create_task for each item to estimate.
3) Each participant calls submit_estimation with a value such as 4h or 1.5d.
4) get_estimation_board shows the round. Non-owners see only the count until the owner calls set_task_visibility.
5) complete_task / complete_project record the agreed estimate.

Docs:
- poker://docs/index
- poker://docs/estimation-values
- poker://docs/realtime
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "poker://docs/index",
		Name:        "docs_index",
		Title:       "estimate-poker docs index",
		Description: "Entry point: what the tools do and who may call them.",
		Content: `# estimate-poker: Agent Docs Index

## Tools by audience

Anyone (no sign in):
- ` + "`get_shared_task`" + `, ` + "`get_estimation_board`" + ` with a share token.

Signed-in users:
- ` + "`list_projects`" + `, ` + "`get_project`" + `, ` + "`list_tasks`" + `, ` + "`get_task`" + `, ` + "`submit_estimation`" + `.

Project owners:
- ` + "`complete_project`" + `, ` + "`delete_project`" + `, ` + "`create_task`" + `, ` + "`set_task_visibility`" + `, ` + "`complete_task`" + `, ` + "`delete_task`" + `.

## Errors

Tool errors start with a stable code: NOT_SIGNED_IN, NOT_OWNER, PROJECT_NOT_FOUND,
TASK_NOT_FOUND, INVALID_INPUT, INVALID_ESTIMATION.

## Limitations

- There is a single local user id; every sign in uses it.
- Deleting a project does not delete its tasks. Orphaned tasks are no longer returned by get_task.
`,
	},
	{
		URI:         "poker://docs/estimation-values",
		Name:        "docs_estimation_values",
		Title:       "Estimation values",
		Description: "Accepted estimate formats, the preset deck and how boards summarize them.",
		Content: `# Estimation values

Values are a non-negative number followed by a unit:

- ` + "`d`" + `: days, e.g. ` + "`1.5d`" + `
- ` + "`h`" + `: hours, converted at 8 hours per day, e.g. ` + "`4h`" + ` is 0.5 days

The preset deck is 1h, 2h, 4h, 8h, 1d, 1.5d, 2d, 3d. Anything else is stored with is_custom=true.

Values are stored in days and displayed in hours when below one day.

## Boards

A board reports the caller's own pick and a summary (count, mean, median, min, max, p10, p90).
Until the owner reveals the task, non-owners see the count only.
`,
	},
	{
		URI:         "poker://docs/realtime",
		Name:        "docs_realtime",
		Title:       "Realtime changes",
		Description: "Subscribing to row changes over the websocket bridge.",
		Content: `# Realtime changes

Connect a websocket to ` + "`/realtime?table=<table>&event=<event>&filter=<filter>`" + ` while signed in.

- table: projects, tasks or estimations (required)
- event: INSERT, UPDATE, DELETE or * (default *)
- filter: ` + "`column=eq.value`" + `; only enforced when the server runs with filter enforcement

Each message is a JSON change: {"schema","table","eventType","new","old"}.
A RELOAD event means the table was replaced by an external write; re-query it.
Slow clients lose messages rather than stall writers.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
