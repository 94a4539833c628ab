package sse

// NewMessage exports newMessage for testing.
var NewMessage = newMessage
