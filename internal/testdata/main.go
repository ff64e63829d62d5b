package testdata

import (
	"encoding/json"

	"pocket/internal/api"
)

// Grid returns a canned 32-beat session payload: 80 bpm quarter notes,
// beginner windows.
func Grid() (*api.StartResponse, error) {
	var resp api.StartResponse
	if err := json.Unmarshal([]byte(data), &resp); nil != err {
		return nil, err
	}
	return &resp, nil
}

const data = `{
	"sessionId": "00000000-0000-0000-0000-000000000001",
	"gameMode": "precision",
	"modeName": "Precision Strike",
	"difficulty": 1,
	"tempo": 80,
	"perfectWindowMs": 80,
	"goodWindowMs": 150,
	"beatTimes": [0, 750, 1500, 2250, 3000, 3750, 4500, 5250,
		6000, 6750, 7500, 8250, 9000, 9750, 10500, 11250,
		12000, 12750, 13500, 14250, 15000, 15750, 16500, 17250,
		18000, 18750, 19500, 20250, 21000, 21750, 22500, 23250],
	"totalNotes": 32,
	"durationMs": 24000
}`
