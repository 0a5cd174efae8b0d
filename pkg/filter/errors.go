package filter

import "errors"

var errNoEvaluator = errors.New("filter: conditional rule needs an evaluator")
