package entity

import "errors"

// ErrDuplicateEntity is returned when two entities of one kind share an id.
var ErrDuplicateEntity = errors.New("entity: duplicate entity id")
