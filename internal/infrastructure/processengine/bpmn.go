package processengine

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
)

var flowNodeTypes = map[string]bool{
	"startEvent":             true,
	"endEvent":               true,
	"userTask":               true,
	"serviceTask":            true,
	"scriptTask":             true,
	"sendTask":               true,
	"receiveTask":            true,
	"manualTask":             true,
	"businessRuleTask":       true,
	"task":                   true,
	"callActivity":           true,
	"subProcess":             true,
	"boundaryEvent":          true,
	"intermediateCatchEvent": true,
	"intermediateThrowEvent": true,
}

// ParseFlowNodes returns the tasks and events of every process in a BPMN 2.0 document,
// in document order. Nested sub process elements are included.
func ParseFlowNodes(r io.Reader) ([]contract.FlowNode, error) {
	dec := xml.NewDecoder(r)
	var nodes []contract.FlowNode
	inProcess := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid BPMN model: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "process" {
				inProcess++
				continue
			}
			if inProcess == 0 || !flowNodeTypes[el.Name.Local] {
				continue
			}
			node := contract.FlowNode{Type: el.Name.Local}
			for _, a := range el.Attr {
				switch a.Name.Local {
				case "id":
					node.ID = a.Value
				case "name":
					node.Name = a.Value
				}
			}
			if node.ID != "" {
				nodes = append(nodes, node)
			}
		case xml.EndElement:
			if el.Name.Local == "process" {
				inProcess--
			}
		}
	}
	return nodes, nil
}
