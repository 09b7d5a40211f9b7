package conversation

import (
	"fmt"
	"strings"
	"time"

	"wildguard_backend/internal/line"
)

// Reply texts. The pipeline is deployed for Japanese municipalities, so all
// user-facing copy is Japanese.
const (
	textGreeting         = "鳥獣被害の目撃情報をお寄せいただきありがとうございます。質問に沿って状況をお知らせください。"
	textAskAnimal        = "目撃した動物の種類を選んでください。"
	textAskPhoto         = "現場の写真があれば送ってください。なければ「写真なし」を選んでください。"
	textAskPhotoConfirm  = "この写真でよろしいですか？"
	textAskSituation     = "どのような状況でしたか？（例：畑が荒らされていた、住宅地で見かけた など）"
	textAskDetail        = "被害や動物の様子について、わかる範囲で詳しく教えてください。"
	textAskDatetime      = "目撃した日時を教えてください。（例：2025-08-30 14:00、日付のみでも可）"
	textAskLocation      = "目撃した場所を位置情報で送ってください。"
	textAskLandmark      = "近くの目印があれば選んでください。"
	textAskConfirm       = "以下の内容で報告します。よろしいですか？"
	textAskCorrection    = "修正後の状況説明を入力してください。"
	textAskPhone         = "折り返し連絡可能な電話番号を入力してください。不要な場合は「入力しない」を選んでください。"
	textCompleted        = "報告を受け付けました。ご協力ありがとうございました。"
	textStartOver        = "最初からやり直します。"
	textGeofenceRejected = "申し訳ありません。この場所は受付対象の地域外です。対象地域内の位置情報を送ってください。"
	textInvalidDatetime  = "日時を読み取れませんでした。「2025-08-30 14:00」のような形式で入力してください。"
	textInvalidPhone     = "電話番号を読み取れませんでした。もう一度入力してください。"
	textTransientFailure = "うまく処理できませんでした。少し時間をおいて、もう一度お試しください。"
)

const (
	labelSkipPhoto   = "写真なし"
	labelPhotoOK     = "はい"
	labelPhotoRetake = "撮り直す"
	labelUseExifTime = "写真の撮影日時を使う"
	labelSkipLand    = "目印なし"
	labelConfirmOK   = "報告する"
	labelConfirmEdit = "説明を修正する"
	labelSkipPhone   = "入力しない"
	labelShareLoc    = "位置情報を送る"
)

const datetimeLayout = "2006-01-02 15:04"
const dateOnlyLayout = "2006-01-02"

func promptAnimalType() line.TextMessage {
	buttons := make(map[string]string, len(animalOrder))
	order := make([]string, 0, len(animalOrder))
	for _, animal := range animalOrder {
		label := animal.Label()
		buttons[label] = EncodePostback(ActionSelectAnimal, string(animal))
		order = append(order, label)
	}
	return line.NewTextWithPostbacks(textAskAnimal, buttons, order)
}

func promptPhoto() line.TextMessage {
	return line.NewTextWithPostbacks(textAskPhoto,
		map[string]string{labelSkipPhoto: EncodePostback(ActionSkipPhoto, "")},
		[]string{labelSkipPhoto})
}

func promptPhotoConfirm() line.TextMessage {
	return line.NewTextWithPostbacks(textAskPhotoConfirm,
		map[string]string{
			labelPhotoOK:     EncodePostback(ActionConfirmPhoto, ""),
			labelPhotoRetake: EncodePostback(ActionRetakePhoto, ""),
		},
		[]string{labelPhotoOK, labelPhotoRetake})
}

func promptSituation() line.TextMessage {
	return line.NewText(textAskSituation)
}

func promptDetail() line.TextMessage {
	return line.NewText(textAskDetail)
}

func promptDatetime(fields CollectedFields) line.TextMessage {
	if fields.PhotoCapturedAt == nil {
		return line.NewText(textAskDatetime)
	}
	return line.NewTextWithPostbacks(textAskDatetime,
		map[string]string{labelUseExifTime: EncodePostback(ActionUsePhotoTime, "")},
		[]string{labelUseExifTime})
}

func promptLocation() line.TextMessage {
	return line.NewTextWithLocationRequest(textAskLocation, labelShareLoc)
}

func promptLandmarks(landmarks []line.QuickReplyItem) line.TextMessage {
	msg := line.NewText(textAskLandmark)
	items := append(landmarks, line.QuickReplyItem{
		Type: "action",
		Action: line.Action{
			Type:  "postback",
			Label: labelSkipLand,
			Data:  EncodePostback(ActionSkipLandmark, ""),
		},
	})
	msg.QuickReply = &line.QuickReply{Items: items}
	return msg
}

func landmarkButtons(fields CollectedFields) []line.QuickReplyItem {
	items := make([]line.QuickReplyItem, 0, len(fields.LandmarkOptions))
	for _, landmark := range fields.LandmarkOptions {
		if len(items) >= 4 {
			break
		}
		items = append(items, line.QuickReplyItem{
			Type: "action",
			Action: line.Action{
				Type:  "postback",
				Label: truncateLabel(landmark.Name),
				Data:  EncodePostback(ActionSelectLandmark, landmark.Name),
			},
		})
	}
	return items
}

func promptConfirm(fields CollectedFields) []line.ReplyMessage {
	summary := buildSummary(fields)
	confirm := line.NewTextWithPostbacks(textAskConfirm,
		map[string]string{
			labelConfirmOK:   EncodePostback(ActionConfirmReport, ""),
			labelConfirmEdit: EncodePostback(ActionRejectDesc, ""),
		},
		[]string{labelConfirmOK, labelConfirmEdit})
	return []line.ReplyMessage{line.NewText(summary), confirm}
}

func promptPhone() line.TextMessage {
	return line.NewTextWithPostbacks(textAskPhone,
		map[string]string{labelSkipPhone: EncodePostback(ActionSkipPhoneNumber, "")},
		[]string{labelSkipPhone})
}

// buildSummary renders the confirmation summary from the collected fields.
// Regenerated fresh every time the user returns to the confirm step.
func buildSummary(fields CollectedFields) string {
	var b strings.Builder
	b.WriteString("【報告内容】\n")
	fmt.Fprintf(&b, "動物: %s\n", fields.AnimalType.Label())

	if fields.PhotoURL != "" {
		b.WriteString("写真: あり\n")
	} else {
		b.WriteString("写真: なし\n")
	}

	fmt.Fprintf(&b, "状況: %s\n", fields.Description)
	if fields.SituationDetail != "" {
		fmt.Fprintf(&b, "詳細: %s\n", fields.SituationDetail)
	}

	if fields.ObservedAt != nil {
		if fields.HasOnlyDate {
			fmt.Fprintf(&b, "日時: %s\n", fields.ObservedAt.In(jst).Format(dateOnlyLayout))
		} else {
			fmt.Fprintf(&b, "日時: %s\n", fields.ObservedAt.In(jst).Format(datetimeLayout))
		}
	}

	fmt.Fprintf(&b, "場所: %s\n", fields.Address)
	if fields.LandmarkHint != "" {
		fmt.Fprintf(&b, "目印: %s付近\n", fields.LandmarkHint)
	}

	return strings.TrimRight(b.String(), "\n")
}

var jst = time.FixedZone("JST", 9*60*60)

func truncateLabel(label string) string {
	// quick reply labels are limited to 20 characters
	runes := []rune(label)
	if len(runes) <= 20 {
		return label
	}
	return string(runes[:20])
}
