package bpmn

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strings"
)

// Document is the parsed structural view of a BPMN 2.0 diagram. Only the
// process model is inspected; the diagram-interchange block is carried along
// untouched inside the raw XML.
type Document struct {
	ProcessID string
	Nodes     []Node
	Flows     []Flow
}

// Node is a flow node (event, task, or gateway) of the process.
type Node struct {
	ID   string
	Type string // local element name: startEvent, task, userTask, ...
	Name string
}

// Flow is a sequence flow connecting two nodes.
type Flow struct {
	ID        string
	SourceRef string
	TargetRef string
}

type xmlDefinitions struct {
	XMLName xml.Name   `xml:"definitions"`
	Process xmlProcess `xml:"process"`
}

type xmlProcess struct {
	ID            string         `xml:"id,attr"`
	StartEvents   []xmlFlowNode  `xml:"startEvent"`
	Tasks         []xmlFlowNode  `xml:"task"`
	UserTasks     []xmlFlowNode  `xml:"userTask"`
	ServiceTasks  []xmlFlowNode  `xml:"serviceTask"`
	SubProcesses  []xmlFlowNode  `xml:"subProcess"`
	ExclusiveGWs  []xmlFlowNode  `xml:"exclusiveGateway"`
	ParallelGWs   []xmlFlowNode  `xml:"parallelGateway"`
	Intermediates []xmlFlowNode  `xml:"intermediateThrowEvent"`
	EndEvents     []xmlFlowNode  `xml:"endEvent"`
	SequenceFlows []xmlSeqFlow   `xml:"sequenceFlow"`
}

type xmlFlowNode struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type xmlSeqFlow struct {
	ID        string `xml:"id,attr"`
	SourceRef string `xml:"sourceRef,attr"`
	TargetRef string `xml:"targetRef,attr"`
}

// ParseDocument decodes a BPMN XML document into its structural view.
func ParseDocument(raw string) (*Document, error) {
	var defs xmlDefinitions
	if err := xml.Unmarshal([]byte(raw), &defs); err != nil {
		return nil, fmt.Errorf("decode bpmn xml: %w", err)
	}
	if defs.Process.ID == "" && len(defs.Process.StartEvents) == 0 {
		return nil, fmt.Errorf("bpmn document has no process")
	}

	doc := &Document{ProcessID: defs.Process.ID}
	appendNodes := func(typ string, nodes []xmlFlowNode) {
		for _, n := range nodes {
			doc.Nodes = append(doc.Nodes, Node{ID: n.ID, Type: typ, Name: n.Name})
		}
	}
	appendNodes("startEvent", defs.Process.StartEvents)
	appendNodes("task", defs.Process.Tasks)
	appendNodes("userTask", defs.Process.UserTasks)
	appendNodes("serviceTask", defs.Process.ServiceTasks)
	appendNodes("subProcess", defs.Process.SubProcesses)
	appendNodes("exclusiveGateway", defs.Process.ExclusiveGWs)
	appendNodes("parallelGateway", defs.Process.ParallelGWs)
	appendNodes("intermediateThrowEvent", defs.Process.Intermediates)
	appendNodes("endEvent", defs.Process.EndEvents)

	for _, f := range defs.Process.SequenceFlows {
		doc.Flows = append(doc.Flows, Flow{ID: f.ID, SourceRef: f.SourceRef, TargetRef: f.TargetRef})
	}
	return doc, nil
}

// ElementIDs returns the sorted ids of all nodes and flows in the document.
func (d *Document) ElementIDs() []string {
	ids := make([]string, 0, len(d.Nodes)+len(d.Flows))
	for _, n := range d.Nodes {
		ids = append(ids, n.ID)
	}
	for _, f := range d.Flows {
		ids = append(ids, f.ID)
	}
	sort.Strings(ids)
	return ids
}

// StartNodeID returns the id of the first start event, or the empty string
// if the document has none.
func (d *Document) StartNodeID() string {
	for _, n := range d.Nodes {
		if n.Type == "startEvent" {
			return n.ID
		}
	}
	return ""
}

// NodeByID looks up a flow node by id.
func (d *Document) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks the document's basic structural invariants: at least one
// start and one end event, unique element ids, and every sequence flow
// referencing known nodes.
func (d *Document) Validate() error {
	var starts, ends int
	seen := map[string]bool{}
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("flow node of type %s has no id", n.Type)
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate element id %q", n.ID)
		}
		seen[n.ID] = true
		switch n.Type {
		case "startEvent":
			starts++
		case "endEvent":
			ends++
		}
	}
	if starts == 0 {
		return fmt.Errorf("process has no start event")
	}
	if ends == 0 {
		return fmt.Errorf("process has no end event")
	}

	for _, f := range d.Flows {
		if seen[f.ID] {
			return fmt.Errorf("duplicate element id %q", f.ID)
		}
		seen[f.ID] = true
		if !nodeExists(d.Nodes, f.SourceRef) {
			return fmt.Errorf("sequence flow %q references unknown source %q", f.ID, f.SourceRef)
		}
		if !nodeExists(d.Nodes, f.TargetRef) {
			return fmt.Errorf("sequence flow %q references unknown target %q", f.ID, f.TargetRef)
		}
	}
	return nil
}

func nodeExists(nodes []Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// LooksLikeDiagram is a cheap pre-check used before handing a string to the
// editor widget: it must at least contain a definitions element.
func LooksLikeDiagram(raw string) bool {
	return strings.Contains(raw, "definitions")
}
