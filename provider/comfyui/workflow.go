package comfyui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// PromptPlaceholder marks the workflow inputs that receive the prompt.
const PromptPlaceholder = "$PROMPT"

// promptKeys are the inputs patched when a workflow carries no placeholder.
var promptKeys = []string{"text", "prompt", "positive"}

// defaultWorkflow is a plain SD 1.5 text-to-image graph in ComfyUI's API format.
const defaultWorkflow = `{
  "3": {"class_type": "KSampler", "inputs": {"seed": 0, "steps": 20, "cfg": 7, "sampler_name": "euler", "scheduler": "normal", "denoise": 1,
        "model": ["4", 0], "positive": ["6", 0], "negative": ["7", 0], "latent_image": ["5", 0]}},
  "4": {"class_type": "CheckpointLoaderSimple", "inputs": {"ckpt_name": "v1-5-pruned-emaonly.safetensors"}},
  "5": {"class_type": "EmptyLatentImage", "inputs": {"width": 512, "height": 512, "batch_size": 1}},
  "6": {"class_type": "CLIPTextEncode", "inputs": {"text": "$PROMPT", "clip": ["4", 1]}},
  "7": {"class_type": "CLIPTextEncode", "inputs": {"text": "blurry, low quality", "clip": ["4", 1]}},
  "8": {"class_type": "VAEDecode", "inputs": {"samples": ["3", 0], "vae": ["4", 2]}},
  "9": {"class_type": "SaveImage", "inputs": {"filename_prefix": "showdown", "images": ["8", 0]}}
}`

// Workflow is a ComfyUI graph template. Each call to Build yields a fresh copy.
type Workflow struct {
	raw []byte
}

// DefaultWorkflow returns the built-in text-to-image graph.
func DefaultWorkflow() *Workflow {
	return &Workflow{raw: []byte(defaultWorkflow)}
}

// ParseWorkflow validates a template. Both the bare API format and exports
// wrapping the graph under "nodes" are accepted.
func ParseWorkflow(data []byte) (*Workflow, error) {
	w := &Workflow{raw: data}
	if _, err := w.Build("validate"); err != nil {
		return nil, err
	}
	return w, nil
}

// LoadWorkflow reads a template from disk.
func LoadWorkflow(path string) (*Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow: %w", err)
	}
	return ParseWorkflow(data)
}

// Build returns the node graph with the prompt filled in.
func (w *Workflow) Build(prompt string) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(w.raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding workflow: %w", err)
	}

	nodes := doc
	if inner, ok := doc["nodes"].(map[string]any); ok {
		nodes = inner
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("workflow has no nodes")
	}

	if !replacePlaceholder(nodes, prompt) {
		patchPromptKeys(nodes, prompt)
	}
	return nodes, nil
}

func nodeInputs(node any) map[string]any {
	n, ok := node.(map[string]any)
	if !ok {
		return nil
	}
	inputs, _ := n["inputs"].(map[string]any)
	return inputs
}

func replacePlaceholder(nodes map[string]any, prompt string) bool {
	found := false
	for _, node := range nodes {
		for k, v := range nodeInputs(node) {
			s, ok := v.(string)
			if !ok || !strings.Contains(s, PromptPlaceholder) {
				continue
			}
			nodeInputs(node)[k] = strings.ReplaceAll(s, PromptPlaceholder, prompt)
			found = true
		}
	}
	return found
}

// patchPromptKeys writes the prompt into the text encoders feeding a sampler's
// positive input. Graphs without such a link fall back to every literal
// prompt key, skipping nodes wired to a negative input.
func patchPromptKeys(nodes map[string]any, prompt string) {
	positive, negative := conditioningNodes(nodes)
	if len(positive) > 0 {
		for id := range positive {
			setPromptKeys(nodeInputs(nodes[id]), prompt)
		}
		return
	}

	for id, node := range nodes {
		if negative[id] {
			continue
		}
		setPromptKeys(nodeInputs(node), prompt)
	}
}

// conditioningNodes returns the ids of nodes linked from "positive" and
// "negative" inputs that hold literal prompt text.
func conditioningNodes(nodes map[string]any) (positive, negative map[string]bool) {
	positive = make(map[string]bool)
	negative = make(map[string]bool)
	for _, node := range nodes {
		inputs := nodeInputs(node)
		if id, ok := linkTarget(inputs["positive"]); ok && hasPromptKey(nodeInputs(nodes[id])) {
			positive[id] = true
		}
		if id, ok := linkTarget(inputs["negative"]); ok {
			negative[id] = true
		}
	}
	// A node used on both sides keeps its text.
	for id := range negative {
		delete(positive, id)
	}
	return positive, negative
}

// linkTarget reads a node link of the form ["6", 0].
func linkTarget(v any) (string, bool) {
	link, ok := v.([]any)
	if !ok || len(link) != 2 {
		return "", false
	}
	id, ok := link[0].(string)
	return id, ok
}

func hasPromptKey(inputs map[string]any) bool {
	for _, k := range promptKeys {
		if _, ok := inputs[k].(string); ok {
			return true
		}
	}
	return false
}

func setPromptKeys(inputs map[string]any, prompt string) {
	for _, k := range promptKeys {
		// Linked inputs are arrays; only literal strings hold prompt text.
		if _, ok := inputs[k].(string); ok {
			inputs[k] = prompt
		}
	}
}
