package relabel

import "github.com/platformbuilds/grafana-relabel/internal/models"

// FlattenPanels expands container panels (rows and collapsed rows) into
// their children and returns the leaf panels in pre-order, depth-first,
// left-to-right. An explicit work stack keeps pathological nesting depth off
// the call stack.
func FlattenPanels(panels []models.Panel) []models.Panel {
	leaves := make([]models.Panel, 0, len(panels))
	stack := make([]models.Panel, 0, len(panels))
	for i := len(panels) - 1; i >= 0; i-- {
		stack = append(stack, panels[i])
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.HasSubPanels() {
			// Containers are dropped; only their children survive. Pushing
			// in reverse keeps the pop order equal to document order.
			children := p.SubPanels()
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
			continue
		}
		leaves = append(leaves, p)
	}
	return leaves
}
