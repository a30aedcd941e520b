// Package prompt fills a form interactively in the terminal. Fields are asked
// in catalog order as they become visible, and the form logic is evaluated
// again after every answer so revealed fields and submission blocks show up
// immediately.
package prompt
