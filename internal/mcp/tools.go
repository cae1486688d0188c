package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listNotesTool = mcp.NewTool("list_notes",
	mcp.WithDescription("List the knowledge files in the knowledge folder with their size and last modification time."),
)

var readNoteTool = mcp.NewTool("read_note",
	mcp.WithDescription("Read the full text of a knowledge file."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name including the .txt extension, e.g. physics.txt"),
	),
)

var createNoteTool = mcp.NewTool("create_note",
	mcp.WithDescription("Create a new knowledge file. Fails if a file with that name already exists."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name ending in .txt"),
	),
	mcp.WithString("content",
		mcp.Description("Initial text of the file (default empty)"),
	),
)

var saveNoteTool = mcp.NewTool("save_note",
	mcp.WithDescription("Overwrite an existing knowledge file. Nothing is written when the text is unchanged."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name ending in .txt"),
	),
	mcp.WithString("content",
		mcp.Required(),
		mcp.Description("The complete new text of the file"),
	),
)

var evaluateNoteTool = mcp.NewTool("evaluate_note",
	mcp.WithDescription("Ask the configured model to critique a knowledge file. Returns what is right, what is wrong and recommendations, and archives the result."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name ending in .txt"),
	),
	mcp.WithString("focus",
		mcp.Description("Evaluation focus (default general)"),
		mcp.Enum("general", "conceptual", "academic"),
	),
	mcp.WithString("model",
		mcp.Description("Model identifier (default: the configured model)"),
	),
	mcp.WithString("content",
		mcp.Description("Evaluate this text instead of the saved file content"),
	),
)

var listEvaluationsTool = mcp.NewTool("list_evaluations",
	mcp.WithDescription("List the archived evaluations of a knowledge file, oldest first."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name ending in .txt"),
	),
)

var getEvaluationTool = mcp.NewTool("get_evaluation",
	mcp.WithDescription("Return one archived evaluation of a knowledge file as JSON."),
	mcp.WithString("name",
		mcp.Required(),
		mcp.Description("File name ending in .txt"),
	),
	mcp.WithString("record",
		mcp.Required(),
		mcp.Description("Record name as returned by list_evaluations"),
	),
)
