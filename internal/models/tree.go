package models

import "fmt"

// TreeNodeType represents the type of tree node
type TreeNodeType string

const (
	TreeNodeTypeRoot     TreeNodeType = "root"
	TreeNodeTypeDatabase TreeNodeType = "database"
	TreeNodeTypeSchema   TreeNodeType = "schema"
	TreeNodeTypeTable    TreeNodeType = "table"
)

// TreeNode is one entry of the table list panel
type TreeNode struct {
	ID       string // e.g. "db:app", "schema:app.public", "table:app.public.users"
	Type     TreeNodeType
	Label    string
	Parent   *TreeNode
	Children []*TreeNode
	Expanded bool
	Table    *TableRef // set on table nodes
}

// NewTreeNode creates a new tree node
func NewTreeNode(id string, nodeType TreeNodeType, label string) *TreeNode {
	return &TreeNode{
		ID:       id,
		Type:     nodeType,
		Label:    label,
		Children: make([]*TreeNode, 0),
	}
}

// AddChild adds a child node to this node
func (n *TreeNode) AddChild(child *TreeNode) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// Toggle flips the expanded state of nodes that have children
func (n *TreeNode) Toggle() {
	if n.Type == TreeNodeTypeTable || len(n.Children) == 0 {
		return
	}
	n.Expanded = !n.Expanded
}

// Flatten returns the visible nodes in display order. The root is never listed.
func (n *TreeNode) Flatten() []*TreeNode {
	result := make([]*TreeNode, 0)
	if n.Type != TreeNodeTypeRoot {
		result = append(result, n)
	}
	if n.Expanded || n.Type == TreeNodeTypeRoot {
		for _, child := range n.Children {
			result = append(result, child.Flatten()...)
		}
	}
	return result
}

// FindByID finds a node by ID in the tree (depth-first search)
func (n *TreeNode) FindByID(id string) *TreeNode {
	if n.ID == id {
		return n
	}
	for _, child := range n.Children {
		if found := child.FindByID(id); found != nil {
			return found
		}
	}
	return nil
}

// GetDepth returns the depth of this node in the tree (root = 0)
func (n *TreeNode) GetDepth() int {
	depth := 0
	for current := n.Parent; current != nil; current = current.Parent {
		depth++
	}
	return depth
}

// TableCount counts table nodes below n
func (n *TreeNode) TableCount() int {
	count := 0
	for _, child := range n.Children {
		if child.Type == TreeNodeTypeTable {
			count++
		}
		count += child.TableCount()
	}
	return count
}

// BuildDatabaseTree builds the table list tree. Tables that carry a schema are
// grouped under a schema node; a single database starts expanded.
func BuildDatabaseTree(databases []Database) *TreeNode {
	root := NewTreeNode("root", TreeNodeTypeRoot, "Databases")
	root.Expanded = true

	for _, db := range databases {
		dbNode := NewTreeNode(fmt.Sprintf("db:%s", db.Name), TreeNodeTypeDatabase, db.Name)
		dbNode.Expanded = len(databases) == 1
		schemas := map[string]*TreeNode{}

		for i := range db.Tables {
			table := db.Tables[i]
			parent := dbNode
			if table.Schema != "" {
				schemaNode, ok := schemas[table.Schema]
				if !ok {
					schemaNode = NewTreeNode(
						fmt.Sprintf("schema:%s.%s", db.Name, table.Schema),
						TreeNodeTypeSchema,
						table.Schema,
					)
					schemaNode.Expanded = table.Schema == "public"
					schemas[table.Schema] = schemaNode
					dbNode.AddChild(schemaNode)
				}
				parent = schemaNode
			}
			node := NewTreeNode("table:"+table.Key(), TreeNodeTypeTable, table.Name)
			node.Table = &table
			parent.AddChild(node)
		}
		root.AddChild(dbNode)
	}

	return root
}
