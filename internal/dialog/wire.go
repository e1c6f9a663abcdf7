package dialog

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

const (
	submitPath   = "/PostNewRequest"
	responsePath = "/GetNewResponse"
	completePath = "/CompleteSession"
)

type submitRequest struct {
	OperatingSystemCode int    `json:"operatingSystemCode"`
	APIKey              string `json:"apiKey"`
	UserDomainName      string `json:"userDomainName"`
	DialogIdentifier    string `json:"dialogIdentifier"`
	AIModelCode         int    `json:"aiModelCode"`
	Message             string `json:"Message"`
}

// sessionRequest is the body of both the poll and the close call.
type sessionRequest struct {
	OperatingSystemCode int    `json:"operatingSystemCode"`
	APIKey              string `json:"apiKey"`
	DialogIdentifier    string `json:"dialogIdentifier"`
}

var (
	pollSuccessPath     = jp.MustParseString("$.status.isSuccess")
	pollDescriptionPath = jp.MustParseString("$.status.description")
	pollMessagePath     = jp.MustParseString("$.data.lastMessage")
	closeSuccessPath    = jp.MustParseString("$.isSuccess")
	closeDescPath       = jp.MustParseString("$.description")
)

// pollResult is the decoded poll envelope
// {status:{isSuccess, description}, data:{lastMessage}}.
type pollResult struct {
	success     bool
	description string
	message     string
}

// decodePoll returns an error when the body is not a well-formed envelope.
func decodePoll(body []byte) (pollResult, error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return pollResult{}, fmt.Errorf("decode poll response: %w", err)
	}
	success, ok := pollSuccessPath.First(doc).(bool)
	if !ok {
		return pollResult{}, fmt.Errorf("poll response has no status.isSuccess")
	}
	res := pollResult{success: success}
	res.description, _ = pollDescriptionPath.First(doc).(string)
	res.message, _ = pollMessagePath.First(doc).(string)
	return res, nil
}

// decodeClose parses the {isSuccess, description} close envelope.
func decodeClose(body []byte) (success bool, description string, err error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return false, "", fmt.Errorf("decode close response: %w", err)
	}
	success, ok := closeSuccessPath.First(doc).(bool)
	if !ok {
		return false, "", fmt.Errorf("close response has no isSuccess")
	}
	description, _ = closeDescPath.First(doc).(string)
	return success, description, nil
}
