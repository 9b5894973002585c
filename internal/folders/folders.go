// Package folders aggregates per-folder item counts over a folder hierarchy
// the index does not own. The tree is an injected read-only snapshot supplied
// per call by an external metadata source; it is never cached here.
package folders

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node is one folder in the externally supplied hierarchy.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Children []*Node `json:"children,omitempty"`
}

// RecursiveCounts computes, for every folder in the tree, its direct item
// count plus the counts of all descendants, in one post-order traversal.
// Folders absent from direct have an implicit direct count of zero; direct
// entries for folders absent from the tree are ignored (the tree snapshot is
// authoritative for hierarchy).
func RecursiveCounts(roots []*Node, direct map[string]int) map[string]int {
	result := make(map[string]int)
	for _, root := range roots {
		sumSubtree(root, direct, result)
	}
	return result
}

func sumSubtree(node *Node, direct map[string]int, result map[string]int) int {
	if node == nil {
		return 0
	}
	total := direct[node.ID]
	for _, child := range node.Children {
		total += sumSubtree(child, direct, result)
	}
	result[node.ID] = total
	return total
}

// DirectCounts is the fallback when no hierarchy is available: each folder's
// recursive count degrades to its direct count.
func DirectCounts(direct map[string]int) map[string]int {
	result := make(map[string]int, len(direct))
	for id, count := range direct {
		result[id] = count
	}
	return result
}

// LoadTree reads a folder hierarchy snapshot from a JSON file holding either
// a single root node or an array of roots.
func LoadTree(path string) ([]*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder tree %s: %w", path, err)
	}

	var roots []*Node
	if err := json.Unmarshal(data, &roots); err == nil {
		return roots, nil
	}

	var single Node
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse folder tree %s: %w", path, err)
	}
	return []*Node{&single}, nil
}
