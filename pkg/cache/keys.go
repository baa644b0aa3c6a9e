package cache

import (
	"fmt"
	"strings"
)

// cache key for the full normalized room collection.
func AllRoomsKey() string {
	return "rooms:all"
}

// cache key for the lite room collection used by list views.
func AllRoomsLiteKey() string {
	return "rooms:all:lite"
}

// cache key for a room looked up by identifier.
func RoomIDKey(id string) string {
	return fmt.Sprintf("room:id:%s", id)
}

// cache key for a room looked up by slug.
func RoomSlugKey(slug string) string {
	return fmt.Sprintf("room:slug:%s", strings.ToLower(strings.TrimSpace(slug)))
}

// prefix a logical key with the namespace; an empty namespace leaves it as is.
func namespaced(namespace, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}
