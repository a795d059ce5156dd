package mqtt5

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Topic validation errors.
var (
	ErrInvalidTopicName   = errors.New("invalid topic name")
	ErrInvalidTopicFilter = errors.New("invalid topic filter")
	ErrEmptyTopic         = errors.New("topic cannot be empty")
)

const (
	topicSeparator      = '/'
	singleLevelWildcard = '+'
	multiLevelWildcard  = '#'

	sharedSubPrefix = "$share/"
)

// ValidateTopicName validates a topic name. Topic names cannot contain
// wildcards and must be valid UTF-8 without null characters.
// MQTT v5.0 spec: Section 4.7.1
func ValidateTopicName(topic string) error {
	if topic == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(topic) {
		return ErrInvalidTopicName
	}

	for _, r := range topic {
		if r == 0 {
			return ErrInvalidTopicName
		}
		if r == singleLevelWildcard || r == multiLevelWildcard {
			return ErrInvalidTopicName
		}
	}

	return nil
}

// ValidateTopicFilter validates a topic filter. Wildcards are allowed but
// must occupy an entire level, and '#' only as the final level. Shared
// subscription filters ($share/{name}/{filter}) are validated on the
// filter part.
// MQTT v5.0 spec: Sections 4.7.1, 4.8.2
func ValidateTopicFilter(filter string) error {
	if filter == "" {
		return ErrEmptyTopic
	}

	if !utf8.ValidString(filter) {
		return ErrInvalidTopicFilter
	}

	for _, r := range filter {
		if r == 0 {
			return ErrInvalidTopicFilter
		}
	}

	if strings.HasPrefix(filter, sharedSubPrefix) {
		rest := filter[len(sharedSubPrefix):]
		idx := strings.IndexByte(rest, topicSeparator)
		if idx <= 0 || idx == len(rest)-1 {
			return ErrInvalidTopicFilter
		}
		if strings.ContainsAny(rest[:idx], "#+") {
			return ErrInvalidTopicFilter
		}
		filter = rest[idx+1:]
	}

	levels := strings.Split(filter, string(topicSeparator))

	for i, level := range levels {
		if strings.ContainsRune(level, singleLevelWildcard) && level != string(singleLevelWildcard) {
			return ErrInvalidTopicFilter
		}

		if strings.ContainsRune(level, multiLevelWildcard) {
			if level != string(multiLevelWildcard) {
				return ErrInvalidTopicFilter
			}
			if i != len(levels)-1 {
				return ErrInvalidTopicFilter
			}
		}
	}

	return nil
}

// TopicMatch reports whether a topic name matches a topic filter.
// Topics starting with '$' are not matched by wildcards at the root level.
// MQTT v5.0 spec: Section 4.7
func TopicMatch(filter, topic string) bool {
	if filter == "" || topic == "" {
		return false
	}

	if topic[0] == '$' {
		if filter[0] == singleLevelWildcard || filter[0] == multiLevelWildcard {
			return false
		}
	}

	return matchLevels(filter, topic)
}

// matchLevels walks filter and topic level by level without allocating.
func matchLevels(filter, topic string) bool {
	fi, ti := 0, 0
	flen, tlen := len(filter), len(topic)

	for fi < flen {
		fstart := fi
		for fi < flen && filter[fi] != topicSeparator {
			fi++
		}
		flevel := filter[fstart:fi]

		if flevel == "#" {
			return true
		}

		if ti >= tlen {
			return false
		}

		tstart := ti
		for ti < tlen && topic[ti] != topicSeparator {
			ti++
		}
		tlevel := topic[tstart:ti]

		if flevel != "+" && flevel != tlevel {
			return false
		}

		if fi < flen {
			fi++
		}
		if ti < tlen {
			ti++
		}
	}

	return ti >= tlen
}
