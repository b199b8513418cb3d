// Package relocation plans and carries out the move of one or more
// containers to a target location. Planner computes an all-or-nothing
// assignment of target positions; Session drives a single drag gesture from
// pick-up through preview to commit or cancel.
package relocation
