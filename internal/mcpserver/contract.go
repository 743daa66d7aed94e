package mcpserver

// RecordFormatContract describes the record categories and the fields the
// add_* tools accept.
const RecordFormatContract = `# LifeOS Record Format

Every record belongs to exactly one category and carries a day and a time.

## Common fields

- ` + "`date`" + `: optional. Any common encoding is accepted (` + "`2024-03-07`" + `,
  ` + "`2024/3/7`" + `, ` + "`3/7/2024`" + `, RFC 3339). Stored as ` + "`YYYY/MM/DD`" + `.
  Omitted means today.
- ` + "`time`" + `: optional ` + "`HH:MM`" + ` label (` + "`9:05`" + ` is stored as ` + "`09:05`" + `).
  Omitted means now. The day timeline is ordered by this label.

## Categories

| Tool | Category | Fields |
|---|---|---|
| add_meal | diet | ` + "`name`" + ` (required), ` + "`calories`" + ` kcal, ` + "`protein`" + ` g |
| add_workout | workout | ` + "`title`" + ` (required), ` + "`duration`" + ` min (default 60), ` + "`calories`" + ` burned (default 300) |
| add_expense | finance | ` + "`amount`" + ` (required, non-zero), ` + "`note`" + ` (default 消費), ` + "`categoryId`" + ` (default gen) |
| add_memo | memo | ` + "`content`" + ` (required); an id is assigned |

Coffee brews (` + "`bean`" + `, ` + "`method`" + `, ` + "`ratio`" + `, ` + "`temp`" + `, ` + "`water`" + `, ` + "`taste`" + `)
are recorded through the HTTP API.

## Rules

1. Numbers may be sent as JSON numbers or numeric strings. Anything else counts as 0.
2. Amounts are decimal; send ` + "`\"12.30\"`" + ` to keep cents exact.
3. Records are appended locally first and sent to the sheet in the background.
   A failed send is logged, never retried.
4. The weekly budget window runs from Monday to the requested day inclusive.
   The remaining budget may be negative.

## Example

` + "```" + `json
{"name": "Chicken salad", "calories": 420, "protein": 35, "time": "12:30"}
` + "```" + `
`
