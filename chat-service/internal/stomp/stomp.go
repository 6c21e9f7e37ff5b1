// Package stomp encodes and decodes STOMP 1.2 frames carried in WebSocket
// text messages, on top of the go-stomp frame codec.
package stomp

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/go-stomp/stomp/v3/frame"
)

// Header names used by the gateway.
const (
	HeaderAcceptVersion = "accept-version"
	HeaderVersion       = "version"
	HeaderHeartBeat     = "heart-beat"
	HeaderServer        = "server"
	HeaderSession       = "session"
	HeaderDestination   = "destination"
	HeaderID            = "id"
	HeaderSubscription  = "subscription"
	HeaderMessageID     = "message-id"
	HeaderReceipt       = "receipt"
	HeaderReceiptID     = "receipt-id"
	HeaderContentType   = "content-type"
	HeaderContentLength = "content-length"
	HeaderMessage       = "message"
	HeaderAuthorization = "Authorization"
)

const (
	Version      = "1.2"
	ServerName   = "rksp-chat/1.0"
	JSONContent  = "application/json"
	TextContent  = "text/plain"
	noHeartBeats = "0,0"
)

// Decode parses every frame in data. Heart-beat EOLs are skipped.
func Decode(data []byte) ([]*frame.Frame, error) {
	r := frame.NewReader(bytes.NewReader(data))
	var frames []*frame.Frame
	for {
		f, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return frames, err
		}
		if f == nil {
			continue
		}
		frames = append(frames, f)
	}
}

// Encode serializes f, adding content-length when the frame has a body.
func Encode(f *frame.Frame) ([]byte, error) {
	if len(f.Body) > 0 {
		f.Header.Set(HeaderContentLength, strconv.Itoa(len(f.Body)))
	}
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Connected builds the reply to CONNECT.
func Connected(sessionID string) *frame.Frame {
	return frame.New(frame.CONNECTED,
		HeaderVersion, Version,
		HeaderServer, ServerName,
		HeaderSession, sessionID,
		HeaderHeartBeat, noHeartBeats,
	)
}

// Message builds a MESSAGE frame for one subscription.
func Message(destination, subscriptionID, messageID, contentType string, body []byte) *frame.Frame {
	f := frame.New(frame.MESSAGE,
		HeaderDestination, destination,
		HeaderSubscription, subscriptionID,
		HeaderMessageID, messageID,
		HeaderContentType, contentType,
	)
	f.Body = body
	return f
}

// Receipt acknowledges a frame that carried a receipt header.
func Receipt(receiptID string) *frame.Frame {
	return frame.New(frame.RECEIPT, HeaderReceiptID, receiptID)
}

// Error builds a protocol ERROR frame. The server closes the connection
// after sending it.
func Error(message string) *frame.Frame {
	f := frame.New(frame.ERROR,
		HeaderMessage, message,
		HeaderContentType, TextContent,
	)
	f.Body = []byte(message)
	return f
}

// SupportsVersion reports whether an accept-version header admits 1.2. An
// absent header means STOMP 1.0 clients, which are served as 1.2.
func SupportsVersion(acceptVersion string) bool {
	if acceptVersion == "" {
		return true
	}
	for _, v := range strings.Split(acceptVersion, ",") {
		if strings.TrimSpace(v) == Version {
			return true
		}
	}
	return false
}
