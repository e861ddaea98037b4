package store

import (
	"encoding/json"
	"fmt"

	"github.com/landlord-game/landlord/engine"
)

// The wire form is the document's JSON. Redis holds exactly these bytes, so
// a document read by any other tool is the same JSON the clients see.

func encode(doc *engine.GameDocument) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode game %s: %w", doc.Code, err)
	}
	return b, nil
}

func decode(b []byte) (*engine.GameDocument, error) {
	var doc engine.GameDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("store: decode document: %w", err)
	}
	return &doc, nil
}
