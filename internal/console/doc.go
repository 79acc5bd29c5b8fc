// Package console holds the patcher's interaction with the user's console
// window: yes/no questions, the final "press enter" gate, and the title.
package console
