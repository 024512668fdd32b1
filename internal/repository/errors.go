package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 一意制約違反（冪等キーの同時作成など）
var ErrConflict = errors.New("conflict")
