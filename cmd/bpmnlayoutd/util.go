package main

import "github.com/dshills/bpmnlayout/pkg/model"

func pointOf(x, y float64) model.Point {
	return model.Point{X: x, Y: y}
}
