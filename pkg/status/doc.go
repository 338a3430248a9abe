/*
Package status models the inline messages shown after user actions.

🎯 Purpose:
- Alert carries a Kind (info, success, danger) and a message
- Format helpers render alerts, key rows and operation groups for the terminal

Validation problems and remote failures surface as Danger alerts; background
autosave failures never produce one.
*/
package status
