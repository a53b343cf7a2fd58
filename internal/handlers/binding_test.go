package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindPayload struct {
	Name         string `json:"name"`
	ManualID     string `json:"manual_id"`
	DepartmentID uint   `json:"department_id"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindPayload
		expectError bool
	}{
		{
			name:     "wrapped under resource key",
			key:      "item",
			body:     `{"item": {"name": "Microscope", "manual_id": "BIO-014", "department_id": 2}}`,
			expected: bindPayload{Name: "Microscope", ManualID: "BIO-014", DepartmentID: 2},
		},
		{
			name:     "flat payload",
			key:      "item",
			body:     `{"name": "Multimeter", "manual_id": "PHY-031", "department_id": 1}`,
			expected: bindPayload{Name: "Multimeter", ManualID: "PHY-031", DepartmentID: 1},
		},
		{
			name:     "key absent falls back to flat",
			key:      "item",
			body:     `{"source": "import", "name": "Beaker", "manual_id": "CHM-220", "department_id": 3}`,
			expected: bindPayload{Name: "Beaker", ManualID: "CHM-220", DepartmentID: 3},
		},
		{
			name:     "different resource key",
			key:      "transfer",
			body:     `{"transfer": {"name": "Centrifuge", "manual_id": "BIO-002", "department_id": 4}}`,
			expected: bindPayload{Name: "Centrifuge", ManualID: "BIO-002", DepartmentID: 4},
		},
		{
			name:        "flat payload with wrong field type",
			key:         "item",
			body:        `{"name": "Scale", "manual_id": "CHM-101", "department_id": "three"}`,
			expectError: true,
		},
		{
			name:        "wrapped payload with wrong field type",
			key:         "item",
			body:        `{"item": {"name": "Scale", "department_id": "three"}}`,
			expectError: true,
		},
		{
			name:        "resource key holds a scalar",
			key:         "item",
			body:        `{"item": "PHY-031"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindPayload
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
