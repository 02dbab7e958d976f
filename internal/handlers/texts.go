package handlers

// Menu buttons. Telegram delivers the label as the message text.
const (
	btnStartJourney = "🚀 بدء الرحلة"
	btnCounter      = "📅 عدّاد الأيام"
	btnTip          = "💡 نصيحة اليوم"
	btnEmergency    = "🆘 خطة الطوارئ"
	btnReasons      = "🧠 أسباب الانتكاس"
	btnAdhkar       = "🕊 أذكار وسكينة"
	btnNotes        = "📓 ملاحظاتي"
	btnAddNote      = "➕ إضافة ملاحظة"
	btnEditNote     = "✏️ تعديل ملاحظة"
	btnDeleteNote   = "🗑 حذف ملاحظة"
	btnReset        = "♻️ إعادة ضبط العدّاد"
	btnSetStart     = "📆 تحديد تاريخ البداية"
	btnRate         = "⭐️ تقييم اليوم"
	btnHistory      = "📊 سجلّي"
	btnSupport      = "📨 مراسلة الدعم"
	btnDailyOn      = "⏰ تفعيل التذكير اليومي"
	btnDailyOff     = "🔕 إيقاف التذكير اليومي"
	btnCancel       = "❌ إلغاء"

	btnBroadcast = "📢 رسالة جماعية"
	btnStats     = "📈 إحصائيات البوت"
)

const (
	txtCancelled     = "تم الإلغاء ✅"
	txtNothingCancel = "لا توجد عملية جارية لإلغائها."
	txtStorageError  = "حدث خطأ مؤقت، حاول مرة أخرى بعد قليل 🙏"
	txtAdminOnly     = "هذا الأمر متاح للمشرف فقط."

	txtJourneyStarted = "🚀 بدأت رحلتك الآن، بالتوفيق!"
	txtJourneyRunning = "رحلتك بدأت بالفعل ولن يُعاد ضبط العدّاد 💪"

	txtResetDone = "♻️ تم إعادة ضبط العدّاد من الآن.\n" +
		"لا تعتبرها هزيمة، بل بداية بوعي أكبر وتجربة أعمق."
	txtNothingToReset = "لا يوجد عدّاد لإعادة ضبطه بعد.\n" +
		"اضغط (🚀 بدء الرحلة) للبدء."

	txtAskStart = "📆 متى بدأت رحلتك؟\n\n" +
		"أرسل عدد الأيام (مثال: 12)\n" +
		"أو التاريخ بصيغة 2025-01-31\n" +
		"أو التاريخ والوقت بصيغة 2025-01-31 21:30 (بتوقيت UTC)."
	txtInvalidStart = "⚠️ لم أفهم التاريخ. أرسل عدد أيام موجبًا أو تاريخًا بصيغة 2025-01-31 أو 2025-01-31 21:30."
	txtFutureStart  = "⚠️ لا يمكن أن يكون تاريخ البداية في المستقبل، أرسل تاريخًا سابقًا."
	txtStartSet     = "✅ تم ضبط بداية العدّاد."

	txtAskRating     = "⭐️ كيف كان يومك؟ أرسل رقمًا من 1 إلى 10."
	txtInvalidRating = "⚠️ أرسل رقمًا صحيحًا من 1 إلى 10."
	txtRated         = "✅ تم تسجيل تقييمك لليوم: %d/10"

	txtAskNote   = "✏️ أرسل الآن ملاحظتك (جملة أو أكثر) وسأحفظها لك.\nاكتب ما تريد أن تتذكّره عند لحظة الضعف."
	txtNoteSaved = "✅ تم حفظ ملاحظتك. يمكنك رؤيتها من زر (📓 ملاحظاتي)."
	txtNoNotes   = "لا توجد ملاحظات مكتوبة بعد.\n" +
		"اضغط (➕ إضافة ملاحظة) أو اكتب أي رسالة وسأحفظها كملاحظة."
	txtNotesHeader     = "📓 ملاحظاتك:\n\n"
	txtAskEditIndex    = "أرسل رقم الملاحظة التي تريد تعديلها."
	txtAskDeleteIndex  = "أرسل رقم الملاحظة التي تريد حذفها."
	txtInvalidIndex    = "⚠️ رقم غير صحيح، أرسل رقمًا من القائمة."
	txtAskEditText     = "أرسل النص الجديد للملاحظة رقم %d."
	txtNoteEdited      = "✅ تم تعديل الملاحظة."
	txtNoteDeleted     = "🗑 تم حذف الملاحظة."
	txtNoteGone        = "هذه الملاحظة لم تعد موجودة."
	txtFallbackNoteAck = "📝 حفظت رسالتك كملاحظة.\nاستخدم الأزرار بالأسفل أو /help لرؤية الأوامر."

	txtAskSupport        = "📨 اكتب رسالتك للمشرف وسأوصلها له."
	txtSupportSent       = "✅ تم إرسال رسالتك للمشرف، سيصلك الرد هنا بإذن الله."
	txtSupportFailed     = "تعذّر إيصال رسالتك الآن، حاول مرة أخرى لاحقًا 🙏"
	txtSupportOff        = "خدمة الدعم غير متاحة حاليًا."
	txtAdminReplySent    = "✅ تم إرسال ردّك للمستخدم."
	txtAdminReplyFailed  = "تعذّر إرسال الرد للمستخدم."
	txtAskBroadcast      = "📢 أرسل نص الرسالة الجماعية."
	txtBroadcastDone     = "📢 تم إرسال الرسالة إلى %d من %d مستخدم (فشل %d)."
	txtBroadcastFailed   = "تعذّر تحميل قائمة المستخدمين."
	txtDailyOn           = "✅ تم تفعيل التذكير اليومي. سأرسل لك رسالة تحفيزية كل يوم بإذن الله."
	txtDailyOff          = "🔕 تم إيقاف التذكير اليومي. يمكنك تفعيله مرة أخرى في أي وقت."
	txtNoUsers           = "لا يوجد أي مستخدم بدأ استخدام البوت بعد."
	txtNoActivity        = "لا يوجد نشاط مسجّل بعد."
	activityTimeLayout   = "2006-01-02 15:04 UTC"
	lastActiveLimit      = 10
	historyRatingsWindow = 7
)
