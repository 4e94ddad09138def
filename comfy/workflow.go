package comfy

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed data/depth_workflow.json
var depthWorkflowJSON []byte

// Node is one entry of a ComfyUI API-format workflow.
type Node struct {
	ClassType string          `json:"class_type"`
	Inputs    map[string]any  `json:"inputs"`
	Meta      json.RawMessage `json:"_meta,omitempty"`
}

// Workflow maps node ids to nodes.
type Workflow map[string]*Node

// DepthWorkflow returns a fresh copy of the bundled depth estimation workflow:
// LoadImage feeding a depth preprocessor feeding SaveImageWebsocket.
func DepthWorkflow() (Workflow, error) {
	return ParseWorkflow(depthWorkflowJSON)
}

// ParseWorkflow decodes an API-format workflow.
func ParseWorkflow(data []byte) (Workflow, error) {
	var wf Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("parse workflow: %w", err)
	}
	return wf, nil
}

// FindNode returns the lowest id of a node with the given class type.
func (wf Workflow) FindNode(classType string) (string, bool) {
	ids := make([]string, 0, len(wf))
	for id, n := range wf {
		if n != nil && n.ClassType == classType {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// SetInputImage points the workflow's LoadImage node at an uploaded image.
func (wf Workflow) SetInputImage(path string) error {
	id, ok := wf.FindNode("LoadImage")
	if !ok {
		return fmt.Errorf("workflow has no LoadImage node")
	}
	n := wf[id]
	if n.Inputs == nil {
		n.Inputs = map[string]any{}
	}
	n.Inputs["image"] = path
	return nil
}
