// Package tui is the terminal host for the chord editor.
//
// The board is drawn by the text surface, one terminal cell per layout unit,
// so a mouse position is handed to the editor's controller unchanged apart
// from the board's offset on screen. Keys:
//
//	d f b      dots, fingers, barres mode
//	1-5        number the selected finger
//	esc        drop the selection or leave the name input
//	u r        undo, redo
//	/          type a chord name; enter looks it up
//	y          copy the diagram JSON to the clipboard
//	ctrl+s     save and close
//	q          close without saving
package tui
