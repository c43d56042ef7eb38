package entity

// CareInstruction は結果画面に表示する育て方のヒント1件です。
// 識別された植物によらず同じ内容を表示します。
type CareInstruction struct {
	Title       string // 見出し（例: Watering Needs）
	Description string // 本文
	Icon        string // アイコン名（Droplet, Sun, Sprout, Info）
	Tooltip     string // 補足説明
}
