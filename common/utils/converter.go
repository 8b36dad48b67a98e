package utils

import (
	"encoding/json"
	"fmt"
)

// 직렬화 방식 상수
const (
	SerializationFormatJSON = iota
	SerializationFormatIndentJSON
)

// SerializeData 객체를 바이트 배열로 직렬화
func SerializeData(data interface{}, format int) ([]byte, error) {
	switch format {
	case SerializationFormatJSON:
		return json.Marshal(data)
	case SerializationFormatIndentJSON:
		return json.MarshalIndent(data, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported serialization format: %d", format)
	}
}

// DeserializeData 바이트 배열을 객체로 역직렬화
func DeserializeData(data []byte, result interface{}, format int) error {
	switch format {
	case SerializationFormatJSON, SerializationFormatIndentJSON:
		return json.Unmarshal(data, result)
	default:
		return fmt.Errorf("unsupported serialization format: %d", format)
	}
}

// ShortHex trims a hex string for log lines: 0x1234...abcd
func ShortHex(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}
