package types

// NodeKind discriminates the payload carried by a graph node.
type NodeKind string

const (
	// KindMaster is the node for the user's target request. Exactly one per run.
	KindMaster NodeKind = "master"
	// KindRequest is a request whose response produced a dynamic value.
	KindRequest NodeKind = "request"
	// KindCookie is a cookie that supplied a dynamic value. Cookies are leaves.
	KindCookie NodeKind = "cookie"
	// KindUnresolved is a dynamic value with no producer anywhere in the corpus.
	KindUnresolved NodeKind = "unresolved"
)

// Node is a vertex of the dependency graph. The payload fields are populated
// per Kind: Entry for master/request nodes, Cookie for cookie nodes, Literal
// for unresolved nodes. Nodes are never deleted; attributes are only updated.
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`

	Entry   *CorpusEntry `json:"entry,omitempty"`
	Cookie  *Cookie      `json:"cookie,omitempty"`
	Literal string       `json:"literal,omitempty"`

	// DynamicParts are the values in this node's own request judged to be
	// session/identity specific. Order follows the oracle's answer.
	DynamicParts []string `json:"dynamic_parts,omitempty"`

	// ExtractedParts are the parent-node values this node was created to
	// explain. Grows as more parents resolve into the same node.
	ExtractedParts []string `json:"extracted_parts,omitempty"`

	// InputVariables are dynamic values matched to caller-supplied named
	// inputs rather than to another node.
	InputVariables map[string]string `json:"input_variables,omitempty"`

	// SourcePaths maps an extracted value to the gojq path at which it was
	// found inside this node's JSON response body, when that is known.
	SourcePaths map[string]string `json:"source_paths,omitempty"`
}

// Edge points from a dependent node to the node supplying one of its
// dynamic values.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RunStatus describes how a resolution run ended.
type RunStatus string

const (
	// StatusComplete means the work queue drained with every value accounted for.
	StatusComplete RunStatus = "complete"
	// StatusBudget means the step budget ran out; the partial graph is valid.
	StatusBudget RunStatus = "aborted: budget"
	// StatusCancelled means the caller's context was cancelled mid-run.
	StatusCancelled RunStatus = "aborted: cancelled"
	// StatusOracleError means an oracle failure ended the run early.
	StatusOracleError RunStatus = "aborted: oracle"
)
