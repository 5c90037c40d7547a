package types

// FieldDescriptor describes how a field type is laid out in storage.
type FieldDescriptor struct {
	FieldType       string // e.g. "link"
	ColumnType      string // storage column type
	QueryColumnType string // query column type
	SchemaType      string // generated schema type name
}

// LinkFieldDescriptor is the descriptor of the link field type.
var LinkFieldDescriptor = FieldDescriptor{
	FieldType:       "link",
	ColumnType:      "text",
	QueryColumnType: "text",
	SchemaType:      "types.Link",
}
